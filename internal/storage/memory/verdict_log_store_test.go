package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func TestVerdictLogStore_InsertBulk(t *testing.T) {
	store := NewVerdictLogStore()
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	records := []*domain.VerdictRecord{
		{Address: "mint1", Verdict: "defer", Reason: domain.ReasonTooYoung, DecidedAt: base.Add(time.Minute)},
		{Address: "mint2", Verdict: "accept", DecidedAt: base},
		{Address: "mint1", Verdict: "reject", Reason: domain.ReasonLowLiquidity, DecidedAt: base.Add(2 * time.Minute)},
	}
	if err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByAddress(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Verdict != "defer" || got[1].Verdict != "reject" {
		t.Errorf("unexpected order: %s, %s", got[0].Verdict, got[1].Verdict)
	}
	if store.Len() != 3 {
		t.Errorf("expected 3 records, got %d", store.Len())
	}
}

func TestVerdictLogStore_InvalidBatchRejected(t *testing.T) {
	store := NewVerdictLogStore()

	err := store.InsertBulk(context.Background(), []*domain.VerdictRecord{{Address: "a"}, nil})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("partial batch stored: %d", store.Len())
	}
}
