package solana

import "context"

// LogsStreamer streams program logs until ctx is done.
type LogsStreamer interface {
	// StreamLogs subscribes to logs matching filter and forwards them to out.
	// It reconnects on connection loss and returns only when ctx is done.
	StreamLogs(ctx context.Context, filter LogsFilter, out chan<- LogNotification) error
}

// LogsFilter defines subscription filter for logs.
type LogsFilter struct {
	// Mentions filters logs that mention any of these program IDs.
	Mentions []string
}

// LogNotification represents a logs subscription message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Failed    bool // transaction error was set
}
