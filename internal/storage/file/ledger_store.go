// Package file implements an append-only file ledger.
package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// ledgerLine is the on-disk JSON line.
type ledgerLine struct {
	Address    string    `json:"address"`
	Reason     string    `json:"reason,omitempty"`
	Attempts   int       `json:"attempts,omitempty"`
	LedgeredAt time.Time `json:"ledgered_at"`
}

// LedgerStore keeps the ledger in memory and appends every new entry to a file.
// Lines are JSON objects; bare address lines are accepted on load.
type LedgerStore struct {
	mu   sync.RWMutex
	f    *os.File
	data map[string]*domain.LedgerEntry
}

// OpenLedgerStore loads path (creating it if missing) and opens it for appending.
func OpenLedgerStore(path string) (*LedgerStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	data, unterminated, err := loadLedger(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if unterminated {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			f.Close()
			return nil, fmt.Errorf("terminate ledger: %w", err)
		}
	}

	return &LedgerStore{f: f, data: data}, nil
}

func loadLedger(path string) (map[string]*domain.LedgerEntry, bool, error) {
	data := make(map[string]*domain.LedgerEntry)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return data, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read ledger: %w", err)
	}
	unterminated := len(raw) > 0 && raw[len(raw)-1] != '\n'

	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		e := parseLine(line)
		if e == nil || e.Address == "" {
			// torn write from a crash
			continue
		}
		if _, exists := data[e.Address]; !exists {
			data[e.Address] = e
		}
	}
	if err := sc.Err(); err != nil {
		return nil, false, fmt.Errorf("scan ledger: %w", err)
	}
	return data, unterminated, nil
}

func parseLine(line []byte) *domain.LedgerEntry {
	if line[0] != '{' {
		return &domain.LedgerEntry{Address: string(line)}
	}
	if !gjson.ValidBytes(line) {
		return nil
	}
	e := &domain.LedgerEntry{
		Address:  gjson.GetBytes(line, "address").String(),
		Reason:   gjson.GetBytes(line, "reason").String(),
		Attempts: int(gjson.GetBytes(line, "attempts").Int()),
	}
	if ts := gjson.GetBytes(line, "ledgered_at"); ts.Exists() {
		if t, err := time.Parse(time.RFC3339Nano, ts.String()); err == nil {
			e.LedgeredAt = t
		}
	}
	return e
}

// Add appends a resolved address. Returns ErrDuplicateKey if already ledgered.
func (s *LedgerStore) Add(_ context.Context, e *domain.LedgerEntry) error {
	if e == nil || e.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[e.Address]; exists {
		return storage.ErrDuplicateKey
	}

	line, err := json.Marshal(ledgerLine{
		Address:    e.Address,
		Reason:     e.Reason,
		Attempts:   e.Attempts,
		LedgeredAt: e.LedgeredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}
	if _, err := s.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append ledger: %w", err)
	}
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
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

// Close closes the underlying file.
func (s *LedgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

var _ storage.LedgerStore = (*LedgerStore)(nil)
