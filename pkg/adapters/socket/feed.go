package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/pkg/domain"
	"nhooyr.io/websocket"
)

// DefaultBuffer is the capacity of the subscriber channel.
const DefaultBuffer = 64

// Feed implements ports.MessageFeed over a websocket.
// Every text frame is a JSON object {"event": "...", "data": {...message...}}.
type Feed struct {
	url       string
	header    http.Header
	buffer    int
	reconnect time.Duration
	onRedial  func(context.Context)
	logger    *slog.Logger
}

// Option configures the Feed.
type Option func(*Feed)

// WithToken sends a bearer token on the handshake.
func WithToken(token string) Option {
	return func(f *Feed) {
		f.header.Set("Authorization", "Bearer "+token)
	}
}

// WithBuffer overrides DefaultBuffer.
func WithBuffer(n int) Option {
	return func(f *Feed) {
		f.buffer = n
	}
}

// WithReconnect redials after a dropped connection, waiting interval between attempts.
// Zero ends the subscription on the first disconnect.
func WithReconnect(interval time.Duration) Option {
	return func(f *Feed) {
		f.reconnect = interval
	}
}

// WithOnReconnect calls fn after every successful redial, before the new
// connection is read. Events pushed while disconnected are lost, so fn is the
// place to pull them from the message history.
func WithOnReconnect(fn func(ctx context.Context)) Option {
	return func(f *Feed) {
		f.onRedial = fn
	}
}

// WithLogger configures a logger for the Feed.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Feed) {
		f.logger = logger
	}
}

// NewFeed creates a feed for the websocket at url (ws:// or wss://).
func NewFeed(url string, opts ...Option) *Feed {
	f := &Feed{
		url:    url,
		header: http.Header{},
		buffer: DefaultBuffer,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Feed) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, f.url, &websocket.DialOptions{HTTPHeader: f.header})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", f.url, err)
	}
	return conn, nil
}

// Subscribe dials the socket and streams decoded events until ctx is done.
// The first dial is synchronous so connection errors reach the caller.
func (f *Feed) Subscribe(ctx context.Context) (<-chan domain.MessageEvent, error) {
	conn, err := f.dial(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.MessageEvent, f.buffer)
	go func() {
		defer close(out)
		for conn != nil {
			err := f.read(ctx, conn, out)
			_ = conn.Close(websocket.StatusNormalClosure, "")
			if ctx.Err() != nil {
				return
			}
			if f.reconnect <= 0 {
				f.logger.Info("socket closed", "url", f.url, "err", err)
				return
			}
			f.logger.Warn("socket dropped, reconnecting", "url", f.url, "err", err, "in", f.reconnect)
			conn = f.redial(ctx)
			if conn != nil && f.onRedial != nil {
				f.onRedial(ctx)
			}
		}
	}()
	return out, nil
}

// redial retries until a connection is made. It returns nil once ctx is done.
func (f *Feed) redial(ctx context.Context) *websocket.Conn {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.reconnect):
		}
		conn, err := f.dial(ctx)
		if err == nil {
			return conn
		}
		f.logger.Warn("socket redial failed", "url", f.url, "err", err)
	}
}

// read forwards frames until the connection fails or ctx is done.
// Malformed frames are skipped.
func (f *Feed) read(ctx context.Context, conn *websocket.Conn, out chan<- domain.MessageEvent) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		var ev domain.MessageEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			f.logger.Warn("skipping malformed frame", "err", err)
			continue
		}
		switch ev.Type {
		case domain.EventMessageNew, domain.EventMessageUpdated, domain.EventMessageNotification:
		default:
			f.logger.Debug("ignoring socket event", "event", ev.Type)
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
