// Package ws implements the broker gateway's tick feed over WebSocket. The
// gateway pushes JSON tick frames for subscribed symbols; the feed dials,
// subscribes, and forwards parsed ticks to a handler. Transient drops are
// retried with backoff; when reconnection attempts are exhausted the feed
// reports a fatal close, which the engine treats as a degraded session.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"orbot/internal/domain"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	handshakeTimeout = 15 * time.Second
	reconnectDelay   = 2 * time.Second
	maxReconnects    = 5
)

// subscribeCommand is the frame sent after connecting.
type subscribeCommand struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
	APIKey  string   `json:"api_key,omitempty"`
}

// tickFrame is the gateway's tick message shape.
type tickFrame struct {
	Type      string  `json:"type"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"ts"` // Unix milliseconds; zero means "use arrival time"
}

// Handler receives each parsed tick.
type Handler func(domain.Tick)

// Feed is a reconnecting WebSocket tick feed for a fixed symbol set.
type Feed struct {
	url     string
	apiKey  string
	symbols []string
	handler Handler
	logger  *slog.Logger
}

// NewFeed creates a Feed delivering ticks for symbols to handler.
func NewFeed(url, apiKey string, symbols []string, handler Handler, logger *slog.Logger) *Feed {
	return &Feed{
		url:     url,
		apiKey:  apiKey,
		symbols: symbols,
		handler: handler,
		logger:  logger.With(slog.String("component", "ws_feed")),
	}
}

// Run connects and reads ticks until ctx is cancelled. Each connection drop
// is retried up to maxReconnects times with a fixed delay; when the retries
// are exhausted Run returns an error wrapping domain.ErrFeedClosed. The feed
// is not restartable mid-session after that point.
func (f *Feed) Run(ctx context.Context) error {
	if len(f.symbols) == 0 {
		f.logger.Info("no symbols to subscribe, feed idle")
		<-ctx.Done()
		return ctx.Err()
	}

	attempts := 0
	for {
		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		attempts++
		if attempts > maxReconnects {
			return fmt.Errorf("ws: reconnect attempts exhausted: %w (last: %v)", domain.ErrFeedClosed, err)
		}
		f.logger.Warn("feed disconnected, reconnecting",
			slog.Int("attempt", attempts),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// runConnection dials, subscribes, and reads frames until the connection
// fails or ctx is cancelled.
func (f *Feed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("ws: dial %s: %w", f.url, err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cmd := subscribeCommand{Type: "subscribe", Symbols: f.symbols, APIKey: f.apiKey}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("ws: subscribe: %w", err)
	}
	f.logger.Info("subscribed", slog.Int("symbols", len(f.symbols)))

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("ws: read: %w", err)
		}
		f.dispatch(data)
	}
}

// dispatch parses one frame and forwards tick messages. Unparseable frames
// and non-tick message types are ignored; price validation is the engine's
// concern.
func (f *Feed) dispatch(data []byte) {
	var frame tickFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		f.logger.Debug("unparseable frame", slog.Int("len", len(data)))
		return
	}
	if frame.Type != "tick" || frame.Symbol == "" {
		return
	}
	ts := time.Now()
	if frame.Timestamp > 0 {
		ts = time.UnixMilli(frame.Timestamp)
	}
	f.handler(domain.Tick{
		Symbol:    frame.Symbol,
		Price:     frame.Price,
		Timestamp: ts,
	})
}
