package flowdeck

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/flowdeck/internal/editor"
	"github.com/aretw0/flowdeck/internal/validator"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/palette"
	"github.com/aretw0/flowdeck/pkg/ports"
	"github.com/aretw0/flowdeck/pkg/registry"
)

// ErrMissingFlowID is returned when mounting without a flow id.
var ErrMissingFlowID = errors.New("flow id is required")

// Session is the editing state of one mounted flow: the graph, the palette
// whose dialogs append into it and the persistence bridge it saves through.
type Session struct {
	editor  *Editor
	graph   *editor.Graph
	palette *palette.Palette
	media   *mediaCache
	diffs   *diffHub
}

func newSession(e *Editor, flowID string) *Session {
	s := &Session{
		editor: e,
		graph: editor.New(flowID,
			editor.WithLifecycleHooks(e.hooks),
			editor.WithLogger(e.logger),
		),
		media: newMediaCache(e.media),
		diffs: newDiffHub(e.logger),
	}
	s.palette = palette.New(palette.Factory(s.AddNode),
		palette.WithMediaLibrary(s.media),
		palette.WithRegistry(e.registry),
		palette.WithLogger(e.logger),
	)
	return s
}

// FlowID returns the flow this session edits.
func (s *Session) FlowID() string {
	return s.graph.FlowID()
}

// Snapshot returns a deep copy of the current graph.
func (s *Session) Snapshot() *domain.Graph {
	return s.graph.Snapshot()
}

// Seq returns the last node id handed out.
func (s *Session) Seq() int {
	return s.graph.Seq()
}

// Palette returns the node factory of the session.
func (s *Session) Palette() *palette.Palette {
	return s.palette
}

// Media returns the attachment source, served from the mount prefetch when possible.
func (s *Session) Media() ports.MediaLibrary {
	return s.media
}

func (s *Session) dispatch(ctx context.Context, a editor.Action) (*editor.Result, error) {
	res, err := s.graph.Dispatch(ctx, a)
	if err != nil {
		return nil, err
	}
	if res.Diff != nil {
		s.diffs.publish(res.Diff)
	}
	return res, nil
}

// AddNode appends a node at the default position.
func (s *Session) AddNode(ctx context.Context, details domain.NodeDetails) (domain.FlowNode, error) {
	res, err := s.dispatch(ctx, editor.AddNode{Details: details})
	if err != nil {
		return domain.FlowNode{}, err
	}
	return *res.Node, nil
}

// Connect records one edge for the connection.
func (s *Session) Connect(ctx context.Context, conn domain.Connection) (domain.FlowEdge, error) {
	res, err := s.dispatch(ctx, editor.Connect{Connection: conn})
	if err != nil {
		return domain.FlowEdge{}, err
	}
	return *res.Edge, nil
}

// MoveNode stores the position of a node at drag end.
func (s *Session) MoveNode(ctx context.Context, id string, pos domain.Position) (domain.FlowNode, error) {
	res, err := s.dispatch(ctx, editor.MoveNode{ID: id, Position: pos})
	if err != nil {
		return domain.FlowNode{}, err
	}
	return *res.Node, nil
}

// Select handles a click on a palette entry. See palette.Palette.Select.
func (s *Session) Select(ctx context.Context, kind domain.NodeType) (*palette.Dialog, *domain.FlowNode, error) {
	return s.palette.Select(ctx, kind)
}

// Submit runs the whole dialog of a kind with the given payload.
func (s *Session) Submit(ctx context.Context, details domain.NodeDetails) (domain.FlowNode, error) {
	return s.palette.Submit(ctx, details)
}

// Save pushes the current graph under the session's flow id.
func (s *Session) Save(ctx context.Context) error {
	return s.editor.bridge.Save(ctx, s.FlowID(), s.Snapshot())
}

// Reload replaces the graph with the stored one.
// The id counter never moves backwards across reloads.
func (s *Session) Reload(ctx context.Context) (*domain.Graph, error) {
	loaded, err := s.editor.bridge.Load(ctx, s.FlowID())
	if err != nil {
		return nil, err
	}
	res, err := s.dispatch(ctx, editor.Replace{Graph: loaded})
	if err != nil {
		return nil, err
	}
	return res.Graph, nil
}

// Views renders every node through the registry.
func (s *Session) Views() ([]registry.View, error) {
	views, err := s.editor.registry.RenderGraph(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("render flow %s: %w", s.FlowID(), err)
	}
	return views, nil
}

// Lint checks the current graph.
func (s *Session) Lint() *validator.Report {
	return validator.Lint(s.Snapshot())
}

// Subscribe streams the diff of every change applied after the call.
// The channel is closed by the returned cancel func or when the session is dropped.
func (s *Session) Subscribe(buffer int) (<-chan *domain.GraphDiff, func()) {
	return s.diffs.subscribe(buffer)
}

// RefreshMedia drops the cached listing of a kind so the next selector refresh hits the library.
func (s *Session) RefreshMedia(kind domain.NodeType) {
	s.media.forget(kind)
}
