package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/flowdeck"
	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/pkg/adapters/memory"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/observability"
	"github.com/aretw0/flowdeck/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readOnlyStore struct{ ports.FlowStore }

func (readOnlyStore) Save(context.Context, string, *domain.Graph) error {
	return domain.ErrSaveUnsupported
}

func newTestServer(t *testing.T, opts ...flowdeck.Option) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	lib := memory.NewMediaLibrary(
		domain.MediaItem{ID: "m123", Filename: "banner.png", MimeType: "image/png"},
		domain.MediaItem{ID: "a1", Filename: "hi.ogg", MimeType: "audio/ogg"},
	)
	opts = append([]flowdeck.Option{flowdeck.WithStore(store), flowdeck.WithMediaLibrary(lib)}, opts...)
	srv := httptest.NewServer(NewHandler(flowdeck.New(opts...)))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthAndInfo(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/info", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "flowdeck-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, strings.TrimSpace(flowdeck.Version), info["version"])
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/flows/{flowID}/nodes"))
	assert.NotNil(t, doc.Paths.Find("/media"))
}

func TestEditingRoundTrip(t *testing.T) {
	srv, store := newTestServer(t)
	base := srv.URL + "/flows/F1"

	resp := do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decodeBody[domain.Graph](t, resp)
	assert.True(t, empty.IsEmpty())

	resp = do(t, http.MethodPost, base+"/nodes", `{"type":"START"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	start := decodeBody[domain.FlowNode](t, resp)
	assert.Equal(t, "1", start.ID)

	resp = do(t, http.MethodPost, base+"/nodes", `{"type":"TEXT","data":{"label":"Hello"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	text := decodeBody[domain.FlowNode](t, resp)
	assert.Equal(t, "2", text.ID)
	assert.Equal(t, &domain.TextData{Label: "Hello"}, text.Data)
	assert.Equal(t, domain.DefaultPosition, text.Position)

	resp = do(t, http.MethodPost, base+"/edges", `{"source":"1","sourceHandle":"next","target":"2","targetHandle":"in"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	edge := decodeBody[domain.FlowEdge](t, resp)
	assert.True(t, edge.Animated)
	assert.Equal(t, domain.DefaultEdgeStyle, edge.Style)

	resp = do(t, http.MethodPatch, base+"/nodes/2/position", `{"x":300,"y":120}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	moved := decodeBody[domain.FlowNode](t, resp)
	assert.Equal(t, domain.Position{X: 300, Y: 120}, moved.Position)

	resp = do(t, http.MethodPut, base, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	stored, err := store.Load(context.Background(), "F1")
	require.NoError(t, err)
	assert.Len(t, stored.Nodes, 2)
	assert.Len(t, stored.Edges, 1)

	resp = do(t, http.MethodGet, srv.URL+"/flows", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"F1"}, decodeBody[[]string](t, resp))

	resp = do(t, http.MethodGet, base+"/view", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	views := decodeBody[[]map[string]any](t, resp)
	require.Len(t, views, 2)
	assert.Equal(t, "Text Message", views[1]["label"])

	resp = do(t, http.MethodGet, base+"/lint", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decodeBody[map[string][]map[string]any](t, resp)
	for _, is := range report["issues"] {
		assert.NotEqual(t, "error", is["severity"])
	}

	resp = do(t, http.MethodDelete, base, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, err = store.Load(context.Background(), "F1")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/flows/F1"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"Unknown Type", http.MethodPost, "/nodes", `{"type":"GIF"}`, http.StatusBadRequest},
		{"Malformed Body", http.MethodPost, "/nodes", `{`, http.StatusBadRequest},
		{"Empty Body", http.MethodPost, "/edges", "", http.StatusBadRequest},
		{"Form Not Ready", http.MethodPost, "/nodes", `{"type":"TEXT","data":{"label":"   "}}`, http.StatusBadRequest},
		{"Unknown Attachment", http.MethodPost, "/nodes", `{"type":"IMAGE","data":{"id":"nope"}}`, http.StatusBadRequest},
		{"Invalid Connection", http.MethodPost, "/edges", `{"source":"","target":"2"}`, http.StatusBadRequest},
		{"Move Missing Node", http.MethodPatch, "/nodes/99/position", `{"x":1,"y":1}`, http.StatusNotFound},
		{"Missing Node Type", http.MethodPost, "/nodes", `{"data":{"label":"Hi"}}`, http.StatusBadRequest},
		{"Missing Coordinate", http.MethodPatch, "/nodes/1/position", `{"x":1}`, http.StatusBadRequest},
		{"Coordinate Not A Number", http.MethodPatch, "/nodes/1/position", `{"x":"left","y":1}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, tt.method, base+tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			body := decodeBody[map[string]string](t, resp)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRequestValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/flows/F1"

	resp := do(t, http.MethodPost, base+"/nodes", `{"type":"START"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodPatch, base+"/nodes/1/position", `{"y":40}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody[map[string]string](t, resp)["error"], `"x"`)

	resp = do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	g := decodeBody[domain.Graph](t, resp)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, domain.DefaultPosition, g.Nodes[0].Position, "rejected requests never reach the editor")

	req, err := http.NewRequest(http.MethodPost, base+"/edges", strings.NewReader(`source=1`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOpenAPIDocument(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	_, err = RequestValidator(doc, logging.NewNop())
	assert.NoError(t, err)
}

func TestSaveUnsupported(t *testing.T) {
	srv, _ := newTestServer(t, flowdeck.WithStore(readOnlyStore{memory.NewStore()}))
	resp := do(t, http.MethodPut, srv.URL+"/flows/F1", "")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestListMedia(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/media?type=IMAGE", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeBody[[]domain.MediaItem](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, "m123", items[0].ID)

	resp = do(t, http.MethodGet, srv.URL+"/media?type=document", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]domain.MediaItem](t, resp), 2)

	resp = do(t, http.MethodGet, srv.URL+"/media?type=TEXT", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	ed := flowdeck.New(flowdeck.WithLifecycleHooks(metrics.Hooks()))
	srv := httptest.NewServer(NewHandler(ed, WithGatherer(reg)))
	defer srv.Close()

	resp := do(t, http.MethodPost, srv.URL+"/flows/F1/nodes", `{"type":"START"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `flowdeck_nodes_added_total{type="START"} 1`)
}

func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
}

func TestSubscribeEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	base := srv.URL + "/flows/F1"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/events?watch=nodes", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	stream := bufio.NewReader(resp.Body)
	assert.Equal(t, "connected", readEvent(t, stream))

	do(t, http.MethodPost, base+"/nodes", `{"type":"START"}`)
	do(t, http.MethodPatch, base+"/nodes/1/position", `{"x":5,"y":5}`)
	do(t, http.MethodPost, base+"/nodes", `{"type":"TEXT","data":{"label":"Hi"}}`)

	var first, second domain.GraphDiff
	require.NoError(t, json.Unmarshal([]byte(readEvent(t, stream)), &first))
	require.NoError(t, json.Unmarshal([]byte(readEvent(t, stream)), &second))

	assert.Equal(t, "F1", first.FlowID)
	require.Len(t, first.Nodes, 1)
	assert.Equal(t, "1", first.Nodes[0].ID)
	require.Len(t, second.Nodes, 1)
	assert.Equal(t, "2", second.Nodes[0].ID, "the move diff is filtered out")
}

func TestSubscribeEvents_UnknownWatchField(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := do(t, http.MethodGet, srv.URL+"/flows/F1/events?watch=context", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestKeepDiff(t *testing.T) {
	moved := &domain.GraphDiff{Moved: map[string]domain.Position{"1": {X: 1}}}
	assert.True(t, keepDiff(moved, nil))
	assert.True(t, keepDiff(moved, []string{"moved"}))
	assert.False(t, keepDiff(moved, []string{"nodes", "edges"}))
	assert.True(t, keepDiff(&domain.GraphDiff{Replaced: true}, []string{"replaced"}))
}
