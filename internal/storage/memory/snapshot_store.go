package memory

import (
	"context"
	"sort"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

type snapshotKey struct {
	address    string
	observedAt int64
}

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	keys map[snapshotKey]struct{}
	data map[string][]*domain.Snapshot // keyed by address
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		keys: make(map[snapshotKey]struct{}),
		data: make(map[string][]*domain.Snapshot),
	}
}

// Insert adds a snapshot. Returns ErrDuplicateKey if (address, observed_at) exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.Snapshot) error {
	if snap == nil || snap.Candidate.Address == "" || snap.ObservedAt.IsZero() {
		return storage.ErrInvalidInput
	}

	key := snapshotKey{address: snap.Candidate.Address, observedAt: snap.ObservedAt.UnixNano()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key]; exists {
		return storage.ErrDuplicateKey
	}
	s.keys[key] = struct{}{}

	copy := *snap
	s.data[key.address] = append(s.data[key.address], &copy)
	return nil
}

// GetByAddress returns snapshots for an address ordered by observed_at ASC.
func (s *SnapshotStore) GetByAddress(_ context.Context, address string) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Snapshot, 0, len(s.data[address]))
	for _, snap := range s.data[address] {
		copy := *snap
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt.Before(result[j].ObservedAt)
	})
	return result, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
