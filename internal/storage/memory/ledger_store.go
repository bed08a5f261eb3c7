package memory

import (
	"context"
	"sync"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// LedgerStore is an in-memory implementation of storage.LedgerStore.
type LedgerStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LedgerEntry
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		data: make(map[string]*domain.LedgerEntry),
	}
}

// Add records a resolved address. Returns ErrDuplicateKey if already ledgered.
func (s *LedgerStore) Add(_ context.Context, e *domain.LedgerEntry) error {
	if e == nil || e.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.Address]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *e
	s.data[e.Address] = &copy
	return nil
}

// Contains reports whether the address is ledgered.
func (s *LedgerStore) Contains(_ context.Context, address string) (bool, error) {
	if address == "" {
		return false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.data[address]
	return exists, nil
}

// Get returns the ledger entry for an address.
func (s *LedgerStore) Get(_ context.Context, address string) (*domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *e
	return &copy, nil
}

// LoadAddresses returns every ledgered address.
func (s *LedgerStore) LoadAddresses(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addrs := make([]string, 0, len(s.data))
	for addr := range s.data {
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

var _ storage.LedgerStore = (*LedgerStore)(nil)
