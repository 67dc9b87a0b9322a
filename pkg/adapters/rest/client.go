package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/pkg/domain"
)

// Default backend routes. "{id}" is replaced with the escaped identifier.
const (
	DefaultFlowPath     = "/chatbot/flows/{id}"
	DefaultMediaPath    = "/media"
	DefaultMessagesPath = "/conversations/{id}/messages"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 15 * time.Second

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// Config locates the platform backend.
type Config struct {
	BaseURL      string
	Token        string
	FlowPath     string
	MediaPath    string
	MessagesPath string
}

// Client reads flows, media and message history from the platform backend.
// It implements ports.FlowStore (read-only), ports.MediaLibrary and ports.MessageHistory.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithLogger configures a logger for the Client.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New creates a backend client. Empty paths fall back to the defaults.
func New(cfg Config, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", cfg.BaseURL, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.FlowPath == "" {
		cfg.FlowPath = DefaultFlowPath
	}
	if cfg.MediaPath == "" {
		cfg.MediaPath = DefaultMediaPath
	}
	if cfg.MessagesPath == "" {
		cfg.MessagesPath = DefaultMessagesPath
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) url(path, id string) string {
	return c.cfg.BaseURL + strings.ReplaceAll(path, "{id}", url.PathEscape(id))
}

// get decodes the JSON response of a GET into out.
// It reports false when the backend answered 404 or an empty body.
func (c *Client) get(ctx context.Context, rawURL string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("backend request", "url", rawURL, "status", resp.StatusCode, "duration", time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return false, fmt.Errorf("GET %s: reading body: %w", rawURL, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, &StatusError{Method: http.MethodGet, URL: rawURL, Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("GET %s: decoding response: %w", rawURL, err)
	}
	return true, nil
}

// Load fetches the graph of a flow.
// A 404, an empty body or a graph without nodes and edges is reported as domain.ErrFlowNotFound.
func (c *Client) Load(ctx context.Context, flowID string) (*domain.Graph, error) {
	var g domain.Graph
	found, err := c.get(ctx, c.url(c.cfg.FlowPath, flowID), &g)
	if err != nil {
		return nil, err
	}
	if !found || g.IsEmpty() {
		return nil, domain.ErrFlowNotFound
	}
	return &g, nil
}

// Save is not supported: the backend has no agreed wire format for flows.
func (c *Client) Save(context.Context, string, *domain.Graph) error {
	return domain.ErrSaveUnsupported
}

// Delete is not supported by the backend.
func (c *Client) Delete(context.Context, string) error {
	return fmt.Errorf("deleting flows: %w", domain.ErrUnsupported)
}

// List is not supported by the backend.
func (c *Client) List(context.Context) ([]string, error) {
	return nil, fmt.Errorf("listing flows: %w", domain.ErrUnsupported)
}

// ListMedia lists uploaded attachments of a kind.
// The backend may ignore the type parameter; callers filter by MIME prefix.
func (c *Client) ListMedia(ctx context.Context, kind domain.NodeType) ([]domain.MediaItem, error) {
	u := c.cfg.BaseURL + c.cfg.MediaPath + "?" + url.Values{"type": {string(kind)}}.Encode()
	items := []domain.MediaItem{}
	if _, err := c.get(ctx, u, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Messages fetches the stored messages of a conversation.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	msgs := []domain.Message{}
	if _, err := c.get(ctx, c.url(c.cfg.MessagesPath, conversationID), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
