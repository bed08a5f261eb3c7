package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/storage"
)

// Record kinds, used as metric labels.
const (
	kindSnapshot = "snapshot"
	kindPosition = "position"
	kindVerdict  = "verdict"
)

// PersisterConfig configures the async persister.
type PersisterConfig struct {
	Buffer        int           `mapstructure:"buffer"`
	VerdictBatch  int           `mapstructure:"verdict_batch"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
}

// DefaultPersisterConfig returns persister defaults.
func DefaultPersisterConfig() PersisterConfig {
	return PersisterConfig{
		Buffer:        4096,
		VerdictBatch:  200,
		FlushInterval: 2 * time.Second,
		WriteTimeout:  5 * time.Second,
	}
}

// AsyncPersister writes records on a single worker goroutine.
// Enqueueing never blocks: when the buffer is full the record is dropped and counted.
type AsyncPersister struct {
	cfg       PersisterConfig
	snapshots storage.SnapshotStore
	positions storage.PositionStore
	verdicts  storage.VerdictLogStore
	records   chan record
	logger    zerolog.Logger
}

type record struct {
	kind     string
	snapshot *domain.Snapshot
	position *domain.Position
	verdict  *domain.VerdictRecord
}

// PersisterOptions for creating AsyncPersister. Nil stores disable that record kind.
type PersisterOptions struct {
	Config    PersisterConfig
	Snapshots storage.SnapshotStore
	Positions storage.PositionStore
	Verdicts  storage.VerdictLogStore
	Logger    zerolog.Logger
}

// NewAsyncPersister creates a persister. Call Run to start the worker.
func NewAsyncPersister(opts PersisterOptions) *AsyncPersister {
	cfg := opts.Config
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultPersisterConfig().Buffer
	}
	if cfg.VerdictBatch <= 0 {
		cfg.VerdictBatch = 1
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultPersisterConfig().FlushInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultPersisterConfig().WriteTimeout
	}

	return &AsyncPersister{
		cfg:       cfg,
		snapshots: opts.Snapshots,
		positions: opts.Positions,
		verdicts:  opts.Verdicts,
		records:   make(chan record, cfg.Buffer),
		logger:    opts.Logger.With().Str("component", "persister").Logger(),
	}
}

var _ Persister = (*AsyncPersister)(nil)

// PersistCandidate enqueues a snapshot of c.
func (p *AsyncPersister) PersistCandidate(c *domain.Candidate, observedAt time.Time) {
	if p.snapshots == nil || c == nil {
		return
	}
	p.enqueue(record{kind: kindSnapshot, snapshot: &domain.Snapshot{Candidate: *c, ObservedAt: observedAt}})
}

// PersistPosition enqueues a copy of pos.
func (p *AsyncPersister) PersistPosition(pos *domain.Position) {
	if p.positions == nil || pos == nil {
		return
	}
	copy := *pos
	p.enqueue(record{kind: kindPosition, position: &copy})
}

// PersistVerdict enqueues a verdict record.
func (p *AsyncPersister) PersistVerdict(r *domain.VerdictRecord) {
	if p.verdicts == nil || r == nil {
		return
	}
	copy := *r
	p.enqueue(record{kind: kindVerdict, verdict: &copy})
}

func (p *AsyncPersister) enqueue(r record) {
	select {
	case p.records <- r:
	default:
		observability.RecordPersistenceDropped(r.kind)
	}
}

// Run writes records until ctx is done, then flushes what is buffered.
func (p *AsyncPersister) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	var verdicts []*domain.VerdictRecord

	for {
		select {
		case r := <-p.records:
			if r.kind == kindVerdict {
				verdicts = append(verdicts, r.verdict)
				if len(verdicts) >= p.cfg.VerdictBatch {
					p.writeVerdicts(verdicts)
					verdicts = nil
				}
				continue
			}
			p.write(r)

		case <-ticker.C:
			if len(verdicts) > 0 {
				p.writeVerdicts(verdicts)
				verdicts = nil
			}

		case <-ctx.Done():
			return p.drain(verdicts)
		}
	}
}

// drain writes everything still buffered.
func (p *AsyncPersister) drain(verdicts []*domain.VerdictRecord) error {
	for {
		select {
		case r := <-p.records:
			if r.kind == kindVerdict {
				verdicts = append(verdicts, r.verdict)
				continue
			}
			p.write(r)
		default:
			if len(verdicts) > 0 {
				p.writeVerdicts(verdicts)
			}
			return nil
		}
	}
}

func (p *AsyncPersister) write(r record) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.WriteTimeout)
	defer cancel()

	var err error
	switch r.kind {
	case kindSnapshot:
		err = p.snapshots.Insert(ctx, r.snapshot)
		if errors.Is(err, storage.ErrDuplicateKey) {
			err = nil
		}
	case kindPosition:
		err = p.positions.Upsert(ctx, r.position)
	}

	if err != nil {
		observability.RecordPersistenceError(r.kind)
		p.logger.Error().Err(fmt.Errorf("%w: %s: %v", ErrPersistence, r.kind, err)).Msg("write failed")
	}
}

func (p *AsyncPersister) writeVerdicts(records []*domain.VerdictRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.WriteTimeout)
	defer cancel()

	if err := p.verdicts.InsertBulk(ctx, records); err != nil {
		observability.RecordPersistenceError(kindVerdict)
		p.logger.Error().
			Err(fmt.Errorf("%w: %s: %v", ErrPersistence, kindVerdict, err)).
			Int("records", len(records)).
			Msg("write failed")
	}
}
