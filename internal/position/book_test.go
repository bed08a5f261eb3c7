package position

import (
	"errors"
	"testing"
	"time"

	"solana-sniper/internal/domain"
)

func TestBook_OnePositionPerAddress(t *testing.T) {
	b := NewBook()
	p := &domain.Position{ID: "1", Address: "mint1", OpenedAt: opened}

	if err := b.Add(p); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := b.Add(&domain.Position{ID: "2", Address: "mint1"}); !errors.Is(err, ErrPositionExists) {
		t.Errorf("expected ErrPositionExists, got %v", err)
	}
	if !b.Has("mint1") || b.Len() != 1 {
		t.Error("book should hold mint1")
	}

	b.Remove("mint1")
	if b.Has("mint1") || b.Len() != 0 {
		t.Error("mint1 should be removed")
	}
}

func TestBook_OpenOrdered(t *testing.T) {
	b := NewBook()
	_ = b.Add(&domain.Position{Address: "late", OpenedAt: opened.Add(time.Minute)})
	_ = b.Add(&domain.Position{Address: "early", OpenedAt: opened})

	open := b.Open()
	if len(open) != 2 || open[0].Address != "early" || open[1].Address != "late" {
		t.Errorf("unexpected order: %v, %v", open[0].Address, open[1].Address)
	}
}
