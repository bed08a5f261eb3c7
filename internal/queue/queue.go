// Package queue holds candidates awaiting (re-)evaluation and the permanent dedup ledger.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// Config bounds the queue.
type Config struct {
	MaxRetries int           `mapstructure:"max_retries"`
	Capacity   int           `mapstructure:"capacity"`
	MaxWait    time.Duration `mapstructure:"max_wait"`
}

// DefaultConfig returns production bounds.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 12,
		Capacity:   5000,
		MaxWait:    6 * time.Hour,
	}
}

// Entry is the scheduling state of one queued address.
type Entry struct {
	Address     string
	RetriesLeft int
	FirstSeen   time.Time
	NextTryAt   time.Time
	Attempts    int
	LastReason  string

	seq    uint64
	leased bool
}

// Queue is the candidate registry. Every address is in at most one of
// {queue, ledger}; ledgered addresses never re-enter.
type Queue struct {
	cfg    Config
	ledger storage.LedgerStore
	clock  func() time.Time

	mu       sync.Mutex
	entries  map[string]*Entry
	ledgered map[string]struct{}
	seq      uint64
	evicted  int
}

// Options configures a Queue.
type Options struct {
	Config Config
	Ledger storage.LedgerStore
	Clock  func() time.Time // defaults to time.Now
}

// New creates a queue backed by a durable ledger.
func New(opts Options) (*Queue, error) {
	if opts.Ledger == nil {
		return nil, fmt.Errorf("queue: ledger store is required")
	}
	cfg := opts.Config
	if cfg.MaxRetries <= 0 {
		return nil, fmt.Errorf("queue: max_retries must be positive")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Queue{
		cfg:      cfg,
		ledger:   opts.Ledger,
		clock:    clock,
		entries:  make(map[string]*Entry),
		ledgered: make(map[string]struct{}),
	}, nil
}

// Load warms the in-memory ledger cache from the durable store.
func (q *Queue) Load(ctx context.Context) (int, error) {
	addrs, err := q.ledger.LoadAddresses(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ledger: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, addr := range addrs {
		q.ledgered[addr] = struct{}{}
		delete(q.entries, addr)
	}
	return len(addrs), nil
}

// Admit inserts address unless it is ledgered or already queued.
// Returns true when the address was inserted.
func (q *Queue) Admit(_ context.Context, address string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if address == "" {
		return false
	}
	if _, done := q.ledgered[address]; done {
		return false
	}
	if _, queued := q.entries[address]; queued {
		return false
	}

	if q.cfg.Capacity > 0 && len(q.entries) >= q.cfg.Capacity {
		q.evictLocked()
	}

	now := q.clock()
	q.seq++
	q.entries[address] = &Entry{
		Address:     address,
		RetriesLeft: q.cfg.MaxRetries,
		FirstSeen:   now,
		NextTryAt:   now,
		seq:         q.seq,
	}
	return true
}

// evictLocked drops the entry with the fewest retries left, oldest first on ties.
// Evicted addresses are not ledgered.
func (q *Queue) evictLocked() {
	var victim *Entry
	for _, e := range q.entries {
		if victim == nil ||
			e.RetriesLeft < victim.RetriesLeft ||
			(e.RetriesLeft == victim.RetriesLeft && e.FirstSeen.Before(victim.FirstSeen)) ||
			(e.RetriesLeft == victim.RetriesLeft && e.FirstSeen.Equal(victim.FirstSeen) && e.seq < victim.seq) {
			victim = e
		}
	}
	if victim != nil {
		delete(q.entries, victim.Address)
		q.evicted++
	}
}

// Ready leases up to limit due entries in insertion order (limit <= 0 means all).
// A leased entry is not returned again until Requeue or Finalize.
func (q *Queue) Ready(limit int) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.clock()
	due := make([]*Entry, 0)
	for _, e := range q.entries {
		if !e.leased && !e.NextTryAt.After(now) {
			due = append(due, e)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].seq < due[j].seq })

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	result := make([]Entry, len(due))
	for i, e := range due {
		e.leased = true
		result[i] = *e
	}
	return result
}

// Requeue records a failed attempt and reschedules address after delay.
// When retries run out or the address has waited longer than MaxWait, it is
// finalized instead and Requeue returns true.
func (q *Queue) Requeue(ctx context.Context, address, reason string, delay time.Duration) (bool, error) {
	q.mu.Lock()
	e, ok := q.entries[address]
	if !ok {
		q.mu.Unlock()
		return false, nil
	}

	now := q.clock()
	e.RetriesLeft--
	e.Attempts++
	e.LastReason = reason
	e.leased = false
	if next := now.Add(delay); next.After(e.NextTryAt) {
		e.NextTryAt = next
	}

	expired := q.cfg.MaxWait > 0 && now.Sub(e.FirstSeen) > q.cfg.MaxWait
	if e.RetriesLeft > 0 && !expired {
		q.mu.Unlock()
		return false, nil
	}
	q.mu.Unlock()

	return true, q.Finalize(ctx, address, reason)
}

// Finalize removes address from the queue and records it in the ledger. Idempotent.
// The in-memory ledger is updated even if the durable write fails.
func (q *Queue) Finalize(ctx context.Context, address, reason string) error {
	q.mu.Lock()
	if _, done := q.ledgered[address]; done {
		delete(q.entries, address)
		q.mu.Unlock()
		return nil
	}

	entry := &domain.LedgerEntry{
		Address:    address,
		Reason:     reason,
		LedgeredAt: q.clock(),
	}
	if e, ok := q.entries[address]; ok {
		entry.Attempts = e.Attempts
		delete(q.entries, address)
	}
	q.ledgered[address] = struct{}{}
	q.mu.Unlock()

	if err := q.ledger.Add(ctx, entry); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("ledger %s: %w", address, err)
	}
	return nil
}

// IsLedgered reports whether address is permanently resolved.
func (q *Queue) IsLedgered(address string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, done := q.ledgered[address]
	return done
}

// Entry returns a copy of the queued entry for address.
func (q *Queue) Entry(address string) (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.entries[address]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// LedgerLen returns the number of ledgered addresses.
func (q *Queue) LedgerLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ledgered)
}

// Evicted returns how many entries were dropped at capacity.
func (q *Queue) Evicted() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.evicted
}
