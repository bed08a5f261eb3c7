package solana

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// WSConfig configures WebSocket client behavior.
type WSConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration `mapstructure:"max_reconnect_delay"`
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration `mapstructure:"ping_interval"`
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// Commitment is the subscription commitment level.
	Commitment string `mapstructure:"commitment"`
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Commitment:        "confirmed",
	}
}

// WSClient implements LogsStreamer using gorilla/websocket.
type WSClient struct {
	endpoint  string
	config    WSConfig
	logger    zerolog.Logger
	requestID atomic.Uint64
}

// NewWSClient creates a WebSocket client. Connections are made by StreamLogs.
func NewWSClient(endpoint string, config WSConfig, logger zerolog.Logger) *WSClient {
	def := DefaultWSConfig()
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = def.ReconnectDelay
	}
	if config.MaxReconnectDelay < config.ReconnectDelay {
		config.MaxReconnectDelay = def.MaxReconnectDelay
	}
	if config.PingInterval <= 0 {
		config.PingInterval = def.PingInterval
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.Commitment == "" {
		config.Commitment = def.Commitment
	}
	return &WSClient{
		endpoint: endpoint,
		config:   config,
		logger:   logger.With().Str("component", "solana_ws").Logger(),
	}
}

// StreamLogs subscribes to logs and forwards notifications to out.
// Reconnects with exponential backoff; returns ctx.Err() on shutdown.
func (c *WSClient) StreamLogs(ctx context.Context, filter LogsFilter, out chan<- LogNotification) error {
	delay := c.config.ReconnectDelay

	for {
		delivered, err := c.session(ctx, filter, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Reset delay after a session that delivered data
		if delivered {
			delay = c.config.ReconnectDelay
		}

		c.logger.Warn().Err(err).Dur("retry_in", delay).Msg("logs stream interrupted")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

// session runs one connection: dial, subscribe, read until error.
func (c *WSClient) session(ctx context.Context, filter LogsFilter, out chan<- LogNotification) (bool, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)

	// Unblock ReadMessage on shutdown
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	go c.pingLoop(conn, stop)

	reqID := c.requestID.Add(1)
	if err := c.subscribe(conn, reqID, filter); err != nil {
		return false, err
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})

	var subID int64 = -1
	delivered := false

	for {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			return delivered, fmt.Errorf("read: %w", err)
		}

		msg := gjson.ParseBytes(message)

		if e := msg.Get("error"); e.Exists() {
			return delivered, fmt.Errorf("rpc error %d: %s", e.Get("code").Int(), e.Get("message").String())
		}

		if id := msg.Get("id"); id.Exists() && id.Uint() == reqID {
			subID = msg.Get("result").Int()
			c.logger.Info().Int64("subscription", subID).Strs("mentions", filter.Mentions).Msg("logs subscribed")
			continue
		}

		if msg.Get("method").String() != "logsNotification" {
			continue
		}
		if msg.Get("params.subscription").Int() != subID {
			continue
		}

		notif := parseLogsNotification(msg)
		select {
		case out <- notif:
			delivered = true
		case <-ctx.Done():
			return delivered, ctx.Err()
		}
	}
}

func (c *WSClient) subscribe(conn *websocket.Conn, reqID uint64, filter LogsFilter) error {
	mentionsFilter := make(map[string]interface{})
	if len(filter.Mentions) > 0 {
		mentionsFilter["mentions"] = filter.Mentions
	} else {
		mentionsFilter["all"] = nil
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			mentionsFilter,
			map[string]string{"commitment": c.config.Commitment},
		},
	}

	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClient) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.config.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil &&
				!errors.Is(err, websocket.ErrCloseSent) {
				// reader sees the broken connection and returns
				return
			}
		}
	}
}

func parseLogsNotification(msg gjson.Result) LogNotification {
	value := msg.Get("params.result.value")

	notif := LogNotification{
		Signature: value.Get("signature").String(),
		Slot:      msg.Get("params.result.context.slot").Int(),
	}
	if e := value.Get("err"); e.Exists() && e.Type != gjson.Null {
		notif.Failed = true
	}
	for _, line := range value.Get("logs").Array() {
		notif.Logs = append(notif.Logs, line.String())
	}
	return notif
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

var _ LogsStreamer = (*WSClient)(nil)
