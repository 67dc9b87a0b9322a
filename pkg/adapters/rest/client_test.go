package rest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/flowdeck/pkg/adapters/rest"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/persistence"
	"github.com/aretw0/flowdeck/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.FlowStore      = (*rest.Client)(nil)
	_ ports.MediaLibrary   = (*rest.Client)(nil)
	_ ports.MessageHistory = (*rest.Client)(nil)
)

const flowF1 = `{
	"nodes": [
		{"id": "1", "type": "START", "position": {"x": 50, "y": 50}},
		{"id": "2", "type": "TEXT", "position": {"x": 50, "y": 50}, "data": {"label": "Hello"}},
		{"id": "3", "type": "IMAGE", "position": {"x": 50, "y": 50}, "data": {"id": "m123", "caption": "Welcome", "buttons": ["Shop now"]}}
	],
	"edges": [
		{"id": "e1", "source": "1", "target": "2", "animated": true, "style": {"stroke": "#25D366", "strokeWidth": 2}}
	]
}`

func newBackend(t *testing.T) (*rest.Client, *http.ServeMux) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c, err := rest.New(rest.Config{BaseURL: srv.URL + "/api/", Token: "secret"})
	require.NoError(t, err)
	return c, mux
}

func TestClient_LoadFlow(t *testing.T) {
	c, mux := newBackend(t)
	mux.HandleFunc("/api/chatbot/flows/F1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(flowF1))
	})
	mux.HandleFunc("/api/chatbot/flows/empty", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"nodes": [], "edges": []}`))
	})
	mux.HandleFunc("/api/chatbot/flows/null", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	ctx := context.Background()

	g, err := c.Load(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, &domain.MediaData{AttachmentID: "m123", Caption: "Welcome", Buttons: []string{"Shop now"}}, g.Nodes[2].Data)
	assert.Len(t, g.Edges, 1)

	for _, id := range []string{"empty", "null", "missing"} {
		_, err := c.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrFlowNotFound, id)
	}
}

func TestClient_BridgeLeavesEditorEmpty(t *testing.T) {
	c, _ := newBackend(t)
	g, err := persistence.NewBridge(c).Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestClient_ServerError(t *testing.T) {
	c, mux := newBackend(t)
	mux.HandleFunc("/api/chatbot/flows/F1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Load(context.Background(), "F1")
	var se *rest.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "boom", se.Body)
}

func TestClient_Unsupported(t *testing.T) {
	c, _ := newBackend(t)
	ctx := context.Background()
	assert.ErrorIs(t, c.Save(ctx, "F1", domain.NewGraph()), domain.ErrSaveUnsupported)
	assert.ErrorIs(t, c.Delete(ctx, "F1"), domain.ErrUnsupported)
	_, err := c.List(ctx)
	assert.ErrorIs(t, err, domain.ErrUnsupported)
}

func TestClient_ListMedia(t *testing.T) {
	c, mux := newBackend(t)
	mux.HandleFunc("/api/media", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "IMAGE", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`[
			{"id": "m1", "filename": "a.png", "mime_type": "image/png", "file_length": 10},
			{"id": "m2", "filename": "b.mp4", "mime_type": "video/mp4", "file_length": 20}
		]`))
	})

	items, err := c.ListMedia(context.Background(), domain.NodeTypeImage)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(10), items[0].FileLength)
	assert.Equal(t, []domain.MediaItem{items[0]}, domain.FilterMedia(items, domain.NodeTypeImage))
}

func TestClient_Messages(t *testing.T) {
	c, mux := newBackend(t)
	mux.HandleFunc("/api/conversations/C1/messages", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "m1", "conversation_id": "C1", "body": "hi", "timestamp": "2024-01-02T03:04:05Z"}]`))
	})

	msgs, err := c.Messages(context.Background(), "C1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Body)
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := rest.New(rest.Config{BaseURL: "not a url"})
	assert.Error(t, err)
}
