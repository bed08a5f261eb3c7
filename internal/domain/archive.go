package domain

import "time"

// ArchivedCandidate is a soft-rejected candidate kept for periodic re-scan.
type ArchivedCandidate struct {
	Address       string
	Channel       Channel
	Reason        string // soft reject reason that archived it
	DiscoveredAt  time.Time
	LastCheckedAt time.Time

	// Snapshot at archive time.
	Holders      int
	LiquidityUSD *float64
	Volume24hUSD *float64
}

// VerdictRecord is one admission decision, kept for audit.
type VerdictRecord struct {
	Address   string
	Channel   Channel
	Verdict   string // accept | reject | defer
	Reason    string
	SoftScore int
	Attempts  int
	Source    string // queue | revival
	DecidedAt time.Time
}

// LedgerEntry records an address that was resolved for good.
// Ledgered addresses are never admitted again.
type LedgerEntry struct {
	Address    string
	Reason     string // last reason before finalization
	Attempts   int
	LedgeredAt time.Time
}

// Snapshot is a candidate observation persisted for later inspection.
type Snapshot struct {
	Candidate  Candidate
	ObservedAt time.Time
}
