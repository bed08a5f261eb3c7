package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// VerdictLogStore is an in-memory implementation of storage.VerdictLogStore.
type VerdictLogStore struct {
	mu   sync.RWMutex
	data []*domain.VerdictRecord
}

// NewVerdictLogStore creates a new in-memory verdict log.
func NewVerdictLogStore() *VerdictLogStore {
	return &VerdictLogStore{}
}

// InsertBulk adds records in one batch.
func (s *VerdictLogStore) InsertBulk(_ context.Context, records []*domain.VerdictRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if r == nil || r.Address == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		copy := *r
		s.data = append(s.data, &copy)
	}
	return nil
}

// GetByAddress returns records for an address ordered by decided_at ASC.
func (s *VerdictLogStore) GetByAddress(_ context.Context, address string) ([]*domain.VerdictRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.VerdictRecord
	for _, r := range s.data {
		if r.Address == address {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DecidedAt.Before(result[j].DecidedAt)
	})
	return result, nil
}

// Len returns the number of stored records.
func (s *VerdictLogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ storage.VerdictLogStore = (*VerdictLogStore)(nil)
