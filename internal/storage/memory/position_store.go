package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by position id
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

// Upsert inserts or replaces a position keyed by ID.
func (s *PositionStore) Upsert(_ context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" || p.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[p.ID] = clonePosition(p)
	return nil
}

// GetByID retrieves a position. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(_ context.Context, id string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return clonePosition(p), nil
}

// ListOpen returns open positions ordered by opened_at ASC.
func (s *PositionStore) ListOpen(_ context.Context) ([]*domain.Position, error) {
	return s.list(func(p *domain.Position) bool { return p.IsOpen() }), nil
}

// ListAll returns all positions ordered by opened_at ASC.
func (s *PositionStore) ListAll(_ context.Context) ([]*domain.Position, error) {
	return s.list(func(*domain.Position) bool { return true }), nil
}

func (s *PositionStore) list(keep func(*domain.Position) bool) []*domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if keep(p) {
			result = append(result, clonePosition(p))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].OpenedAt.Equal(result[j].OpenedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].OpenedAt.Before(result[j].OpenedAt)
	})
	return result
}

func clonePosition(p *domain.Position) *domain.Position {
	c := *p
	if p.ClosedAt != nil {
		t := *p.ClosedAt
		c.ClosedAt = &t
	}
	if p.ClosePrice != nil {
		v := *p.ClosePrice
		c.ClosePrice = &v
	}
	return &c
}

var _ storage.PositionStore = (*PositionStore)(nil)
