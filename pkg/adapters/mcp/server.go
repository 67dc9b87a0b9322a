package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/flowdeck"
	"github.com/aretw0/flowdeck/internal/logging"
	"github.com/aretw0/flowdeck/internal/presentation/graph"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// FlowsURI is the resource listing the stored flows.
const FlowsURI = "flowdeck://flows"

// AddNodeArgs are the arguments of the add_node tool.
type AddNodeArgs struct {
	FlowID string         `json:"flow_id"`
	Type   string         `json:"type"`
	Data   map[string]any `json:"data,omitempty"`
}

// ConnectArgs are the arguments of the connect tool.
type ConnectArgs struct {
	FlowID       string `json:"flow_id"`
	Source       string `json:"source"`
	SourceHandle string `json:"source_handle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"target_handle,omitempty"`
}

// MoveNodeArgs are the arguments of the move_node tool.
type MoveNodeArgs struct {
	FlowID string  `json:"flow_id"`
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Server wraps the flowdeck Editor and exposes it as an MCP Server.
type Server struct {
	editor    *flowdeck.Editor
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(editor *flowdeck.Editor, opts ...Option) *Server {
	s := &Server{
		editor:    editor,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("flowdeck-mcp", strings.TrimSpace(flowdeck.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func flowIDParam() mcp.ToolOption {
	return mcp.WithString("flow_id", mcp.Required(), mcp.Description("Flow identifier"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the ids of the stored flows."),
	), s.handleListFlows)

	s.mcpServer.AddTool(mcp.NewTool("get_flow",
		mcp.WithDescription("Get the nodes and edges of a flow. A flow with no data is empty."),
		flowIDParam(),
	), s.handleGetFlow)

	s.mcpServer.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Append a message node at the default position. The payload goes through the same checks as the editor dialog."),
		flowIDParam(),
		mcp.WithString("type", mcp.Required(), mcp.Description("START, TEXT, IMAGE, AUDIO, VIDEO, DOCUMENT, BUTTON or LIST"),
			mcp.Enum(nodeTypeNames()...)),
		mcp.WithObject("data", mcp.Description("Payload: {label} for TEXT, {id, caption, buttons} for media, {text, buttons} for BUTTON, {header, body, footer, sections} for LIST")),
		mcp.WithOutputSchema[domain.FlowNode](),
	), mcp.NewStructuredToolHandler(s.handleAddNode))

	s.mcpServer.AddTool(mcp.NewTool("connect",
		mcp.WithDescription("Draw an edge from an output handle of one node to the input handle of another."),
		flowIDParam(),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("source_handle", mcp.Description("Output handle id, e.g. next, button-0, section-0-button-1")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithString("target_handle", mcp.Description("Input handle id, normally in")),
		mcp.WithOutputSchema[domain.FlowEdge](),
	), mcp.NewStructuredToolHandler(s.handleConnect))

	s.mcpServer.AddTool(mcp.NewTool("move_node",
		mcp.WithDescription("Set the position of a node."),
		flowIDParam(),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithNumber("x", mcp.Required()),
		mcp.WithNumber("y", mcp.Required()),
		mcp.WithOutputSchema[domain.FlowNode](),
	), mcp.NewStructuredToolHandler(s.handleMoveNode))

	s.mcpServer.AddTool(mcp.NewTool("lint_flow",
		mcp.WithDescription("Report unreachable nodes, dangling edges and unconnected buttons."),
		flowIDParam(),
	), s.handleLintFlow)

	s.mcpServer.AddTool(mcp.NewTool("save_flow",
		mcp.WithDescription("Persist the current graph of a flow."),
		flowIDParam(),
	), s.handleSaveFlow)

	s.mcpServer.AddTool(mcp.NewTool("render_mermaid",
		mcp.WithDescription("Render a flow as a Mermaid flowchart."),
		flowIDParam(),
	), s.handleRenderMermaid)
}

func nodeTypeNames() []string {
	out := make([]string, len(domain.NodeTypes))
	for i, t := range domain.NodeTypes {
		out[i] = string(t)
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) session(ctx context.Context, request mcp.CallToolRequest) (*flowdeck.Session, *mcp.CallToolResult) {
	flowID, err := request.RequireString("flow_id")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	sess, err := s.editor.Session(ctx, flowID)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("mount failed: %v", err))
	}
	return sess, nil
}

func (s *Server) handleListFlows(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.editor.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if ids == nil {
		ids = []string{}
	}
	return jsonResult(ids)
}

func (s *Server) handleGetFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, fail := s.session(ctx, request)
	if fail != nil {
		return fail, nil
	}
	return jsonResult(sess.Snapshot())
}

func (s *Server) handleAddNode(ctx context.Context, _ mcp.CallToolRequest, args AddNodeArgs) (domain.FlowNode, error) {
	t, err := domain.ParseNodeType(args.Type)
	if err != nil {
		return domain.FlowNode{}, err
	}
	data, err := domain.DecodeData(t, args.Data)
	if err != nil {
		return domain.FlowNode{}, err
	}
	sess, err := s.editor.Session(ctx, args.FlowID)
	if err != nil {
		return domain.FlowNode{}, err
	}
	node, err := sess.Submit(ctx, domain.NodeDetails{Type: t, Data: data})
	if err != nil {
		s.logger.Warn("MCP add_node rejected", "flow_id", args.FlowID, "type", t, "err", err)
		return domain.FlowNode{}, err
	}
	return node, nil
}

func (s *Server) handleConnect(ctx context.Context, _ mcp.CallToolRequest, args ConnectArgs) (domain.FlowEdge, error) {
	sess, err := s.editor.Session(ctx, args.FlowID)
	if err != nil {
		return domain.FlowEdge{}, err
	}
	return sess.Connect(ctx, domain.Connection{
		Source:       args.Source,
		SourceHandle: args.SourceHandle,
		Target:       args.Target,
		TargetHandle: args.TargetHandle,
	})
}

func (s *Server) handleMoveNode(ctx context.Context, _ mcp.CallToolRequest, args MoveNodeArgs) (domain.FlowNode, error) {
	sess, err := s.editor.Session(ctx, args.FlowID)
	if err != nil {
		return domain.FlowNode{}, err
	}
	return sess.MoveNode(ctx, args.NodeID, domain.Position{X: args.X, Y: args.Y})
}

func (s *Server) handleLintFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, fail := s.session(ctx, request)
	if fail != nil {
		return fail, nil
	}
	return jsonResult(sess.Lint())
}

func (s *Server) handleSaveFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, fail := s.session(ctx, request)
	if fail != nil {
		return fail, nil
	}
	if err := sess.Save(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved %s", sess.FlowID())), nil
}

func (s *Server) handleRenderMermaid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, fail := s.session(ctx, request)
	if fail != nil {
		return fail, nil
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(sess.Snapshot(), s.editor.Registry(), nil)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(FlowsURI, "Stored Flows",
		mcp.WithMIMEType("application/json"),
	), s.readFlows)
}

func (s *Server) readFlows(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.editor.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	jsonBytes, _ := json.Marshal(ids)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FlowsURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
