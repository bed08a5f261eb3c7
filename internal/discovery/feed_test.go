package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/solana"
)

type fakeStreamer struct {
	notifs []solana.LogNotification
	err    error
	filter solana.LogsFilter
}

func (s *fakeStreamer) StreamLogs(ctx context.Context, filter solana.LogsFilter, out chan<- solana.LogNotification) error {
	s.filter = filter
	for _, n := range s.notifs {
		select {
		case out <- n:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestLaunchFeed_EmitsNewMints(t *testing.T) {
	logs := createLogs(t, testMint)
	streamer := &fakeStreamer{notifs: []solana.LogNotification{
		{Signature: "sig-failed", Slot: 1, Logs: logs, Failed: true},
		{Signature: "sig-1", Slot: 2, Logs: logs},
		{Signature: "sig-2", Slot: 3, Logs: logs},
	}}

	feed := NewLaunchFeed(streamer, FeedConfig{Buffer: 4}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	select {
	case ev := <-feed.Events():
		assert.Equal(t, testMint, ev.Mint)
		assert.Equal(t, "sig-1", ev.Signature)
		assert.Equal(t, int64(2), ev.Slot)
		assert.Equal(t, "WIF", ev.Symbol)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for launch event")
	}

	select {
	case ev := <-feed.Events():
		t.Fatalf("duplicate mint emitted: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{PumpFun}, streamer.filter.Mentions)
}

func TestLaunchFeed_StreamError(t *testing.T) {
	streamer := &fakeStreamer{err: errors.New("boom")}
	feed := NewLaunchFeed(streamer, FeedConfig{}, zerolog.Nop())

	err := feed.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
