package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aretw0/flowdeck"
	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/internal/validator"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/palette"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxBodySize caps request bodies.
const MaxBodySize = 1 << 20

// Server exposes an Editor over HTTP.
type Server struct {
	Editor   *flowdeck.Editor
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates a new HTTP handler for the editor.
func NewHandler(editor *flowdeck.Editor, opts ...Option) http.Handler {
	s := &Server{
		Editor:   editor,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if doc, err := GetSwagger(); err != nil {
		s.logger.Error("Request validation disabled", "err", err)
	} else if validate, err := RequestValidator(doc, s.logger); err != nil {
		s.logger.Error("Request validation disabled", "err", err)
	} else {
		r.Use(validate)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Get("/media", s.ListMedia)
	r.Route("/flows", func(r chi.Router) {
		r.Get("/", s.ListFlows)
		r.Route("/{flowID}", func(r chi.Router) {
			r.Get("/", s.GetFlow)
			r.Put("/", s.SaveFlow)
			r.Delete("/", s.DeleteFlow)
			r.Post("/nodes", s.AddNode)
			r.Patch("/nodes/{nodeID}/position", s.MoveNode)
			r.Post("/edges", s.Connect)
			r.Get("/view", s.ViewFlow)
			r.Get("/lint", s.LintFlow)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>flowdeck API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// statusOf maps editor errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrFlowNotFound), errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrUnknownNodeType),
		errors.Is(err, domain.ErrPayloadMismatch),
		errors.Is(err, domain.ErrInvalidConnection),
		errors.Is(err, flowdeck.ErrMissingFlowID),
		errors.Is(err, palette.ErrNotReady),
		errors.Is(err, palette.ErrTooManyButtons),
		errors.Is(err, palette.ErrUnknownAttachment),
		errors.Is(err, palette.ErrEmptyField),
		errors.Is(err, palette.ErrInputTooLarge),
		errors.Is(err, palette.ErrInvalidUTF8):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError && code != http.StatusNotImplemented {
		s.logger.Error(op+" failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Warn(op+" rejected", "path", r.URL.Path, "status", code, "err", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*flowdeck.Session, bool) {
	sess, err := s.Editor.Session(r.Context(), chi.URLParam(r, "flowID"))
	if err != nil {
		s.fail(w, r, "mount", err)
		return nil, false
	}
	return sess, true
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		s.logger.Error("Failed to load OpenAPI spec", "err", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "flowdeck-http",
		"version":     strings.TrimSpace(flowdeck.Version),
		"api_version": apiVersion,
	})
}

// ListFlows handles the GET /flows request.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Editor.List(r.Context())
	if err != nil {
		s.fail(w, r, "list flows", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// GetFlow handles the GET /flows/{flowID} request.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// SaveFlow handles the PUT /flows/{flowID} request.
func (s *Server) SaveFlow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Save(r.Context()); err != nil {
		s.fail(w, r, "save flow", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteFlow handles the DELETE /flows/{flowID} request.
func (s *Server) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.Editor.Delete(r.Context(), chi.URLParam(r, "flowID")); err != nil {
		s.fail(w, r, "delete flow", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddNode handles the POST /flows/{flowID}/nodes request.
// The payload goes through the palette dialog of its kind.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var details domain.NodeDetails
	if err := decode(w, r, &details); err != nil {
		s.badRequest(w, r, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	node, err := sess.Submit(r.Context(), details)
	if err != nil {
		s.fail(w, r, "add node", err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

// Connect handles the POST /flows/{flowID}/edges request.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var conn domain.Connection
	if err := decode(w, r, &conn); err != nil {
		s.badRequest(w, r, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	edge, err := sess.Connect(r.Context(), conn)
	if err != nil {
		s.fail(w, r, "connect", err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

// MoveNode handles the PATCH /flows/{flowID}/nodes/{nodeID}/position request.
func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	var pos domain.Position
	if err := decode(w, r, &pos); err != nil {
		s.badRequest(w, r, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	node, err := sess.MoveNode(r.Context(), chi.URLParam(r, "nodeID"), pos)
	if err != nil {
		s.fail(w, r, "move node", err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// ViewFlow handles the GET /flows/{flowID}/view request.
func (s *Server) ViewFlow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	views, err := sess.Views()
	if err != nil {
		s.fail(w, r, "view flow", err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// LintFlow handles the GET /flows/{flowID}/lint request.
func (s *Server) LintFlow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	report := sess.Lint()
	if report.Issues == nil {
		report.Issues = []validator.Issue{}
	}
	writeJSON(w, http.StatusOK, report)
}

// ListMedia handles the GET /media request: the attachment selector listing.
func (s *Server) ListMedia(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseNodeType(r.URL.Query().Get("type"))
	if err == nil && !kind.IsMedia() {
		err = fmt.Errorf("%w: %s is not a media kind", domain.ErrUnknownNodeType, kind)
	}
	if err != nil {
		s.fail(w, r, "list media", err)
		return
	}
	lib := s.Editor.Media()
	if lib == nil {
		writeJSON(w, http.StatusOK, []domain.MediaItem{})
		return
	}
	items, err := lib.ListMedia(r.Context(), kind)
	if err != nil {
		s.fail(w, r, "list media", err)
		return
	}
	filtered := domain.FilterMedia(items, kind)
	if filtered == nil {
		filtered = []domain.MediaItem{}
	}
	writeJSON(w, http.StatusOK, filtered)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
}

// diffFields are the accepted values of the watch filter.
var diffFields = []string{"nodes", "edges", "moved", "replaced"}

func keepDiff(d *domain.GraphDiff, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	for _, field := range watch {
		switch field {
		case "nodes":
			if len(d.Nodes) > 0 {
				return true
			}
		case "edges":
			if len(d.Edges) > 0 {
				return true
			}
		case "moved":
			if len(d.Moved) > 0 {
				return true
			}
		case "replaced":
			if d.Replaced {
				return true
			}
		}
	}
	return false
}

// SubscribeEvents handles the GET /flows/{flowID}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			f = strings.TrimSpace(f)
			if !slices.Contains(diffFields, f) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown watch field %q", f)})
				return
			}
			watch = append(watch, f)
		}
	}

	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	diffs, cancel := sess.Subscribe(0)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to flow updates", "flow_id", sess.FlowID())
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "flow_id", sess.FlowID())
			return
		case d, ok := <-diffs:
			if !ok {
				return
			}
			if !keepDiff(d, watch) {
				continue
			}
			payload, err := json.Marshal(d)
			if err != nil {
				s.logger.Error("SSE: diff encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
