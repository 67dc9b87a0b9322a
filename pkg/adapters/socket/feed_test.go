package socket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/flowdeck/pkg/adapters/memory"
	"github.com/aretw0/flowdeck/pkg/adapters/socket"
	"github.com/aretw0/flowdeck/pkg/conversation"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// platform accepts a websocket, sends frames and closes.
func platform(t *testing.T, frames ...string) (string, *atomic.Int32) {
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		for _, f := range frames {
			if err := c.Write(ctx, websocket.MessageText, []byte(f)); err != nil {
				return
			}
		}
		_ = wsjson.Write(ctx, c, domain.MessageEvent{Type: domain.EventMessageNew, Message: domain.Message{ID: "last", ConversationID: "C1"}})
		_ = c.Close(websocket.StatusNormalClosure, "bye")
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), &dials
}

func drain(t *testing.T, ch <-chan domain.MessageEvent) []domain.MessageEvent {
	var got []domain.MessageEvent
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatal("feed did not close")
		}
	}
}

func TestFeed_DecodesFrames(t *testing.T) {
	url, _ := platform(t,
		`{"event": "message_new", "data": {"id": "m1", "conversation_id": "C1", "body": "hi"}}`,
		`{not json`,
		`{"event": "typing", "data": {"id": "x"}}`,
		`{"event": "new_message_notification", "data": {"id": "m2", "conversation_id": "C1"}}`,
	)
	feed := socket.NewFeed(url, socket.WithToken("tok"))

	ch, err := feed.Subscribe(context.Background())
	require.NoError(t, err)

	got := drain(t, ch)
	require.Len(t, got, 3)
	assert.Equal(t, domain.EventMessageNew, got[0].Type)
	assert.Equal(t, "hi", got[0].Message.Body)
	assert.Equal(t, domain.EventMessageNotification, got[1].Type)
	assert.Equal(t, "last", got[2].Message.ID)
}

func TestFeed_DialError(t *testing.T) {
	feed := socket.NewFeed("ws://127.0.0.1:1/nope")
	_, err := feed.Subscribe(context.Background())
	assert.Error(t, err)
}

func TestFeed_Reconnects(t *testing.T) {
	url, dials := platform(t)
	var redials atomic.Int32
	feed := socket.NewFeed(url,
		socket.WithToken("tok"),
		socket.WithReconnect(10*time.Millisecond),
		socket.WithOnReconnect(func(context.Context) { redials.Add(1) }),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := feed.Subscribe(ctx)
	require.NoError(t, err)

	// Each connection delivers the same "last" message; the inbox keeps one.
	in := conversation.NewInbox()
	go func() { _ = in.Pump(ctx, staticFeed{ch}) }()

	require.Eventually(t, func() bool { return dials.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(in.Messages("C1")) == 1 }, time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, redials.Load(), int32(2), "every redial after the first dial is reported")

	cancel()
	drain(t, ch)
}

func TestFeed_ReconnectResyncsInbox(t *testing.T) {
	url, dials := platform(t)
	history := memory.NewFeed(4)
	history.Publish(domain.MessageEvent{Type: domain.EventMessageNew, Message: domain.Message{ID: "gap", ConversationID: "C1", Body: "sent while offline"}})

	in := conversation.NewInbox()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var resynced atomic.Int32
	feed := socket.NewFeed(url,
		socket.WithToken("tok"),
		socket.WithReconnect(10*time.Millisecond),
		socket.WithOnReconnect(func(ctx context.Context) {
			missing, err := in.Resync(ctx, history)
			assert.NoError(t, err)
			resynced.Add(int32(len(missing)))
		}),
	)
	ch, err := feed.Subscribe(ctx)
	require.NoError(t, err)
	go func() { _ = in.Pump(ctx, staticFeed{ch}) }()

	require.Eventually(t, func() bool { return dials.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(in.Messages("C1")) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), resynced.Load(), "the gap message is pulled once")
	assert.ElementsMatch(t, []string{"last", "gap"}, []string{in.Messages("C1")[0].ID, in.Messages("C1")[1].ID})

	cancel()
	drain(t, ch)
}

type staticFeed struct{ ch <-chan domain.MessageEvent }

func (s staticFeed) Subscribe(context.Context) (<-chan domain.MessageEvent, error) { return s.ch, nil }
