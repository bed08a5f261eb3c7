package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

func TestSnapshotStore_InsertAndGet(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for _, offset := range []time.Duration{2 * time.Minute, 0, time.Minute} {
		snap := &domain.Snapshot{
			Candidate:  domain.Candidate{Address: "mint1", Holders: int(offset / time.Minute)},
			ObservedAt: base.Add(offset),
		}
		if err := store.Insert(ctx, snap); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByAddress(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(got))
	}
	for i, snap := range got {
		if snap.Candidate.Holders != i {
			t.Errorf("snapshot %d out of order: holders=%d", i, snap.Candidate.Holders)
		}
	}

	dup := &domain.Snapshot{Candidate: domain.Candidate{Address: "mint1"}, ObservedAt: base}
	if err := store.Insert(ctx, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	if err := store.Insert(ctx, &domain.Snapshot{Candidate: domain.Candidate{Address: "mint1"}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
