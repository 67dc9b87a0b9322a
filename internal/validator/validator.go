package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// Severity ranks lint findings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue codes.
const (
	CodeDuplicateNode  = "duplicate-node"
	CodeNoStart        = "no-start"
	CodeMultipleStart  = "multiple-start"
	CodeDanglingEdge   = "dangling-edge"
	CodeUnknownHandle  = "unknown-handle"
	CodeEdgeIntoStart  = "edge-into-start"
	CodeUnreachable    = "unreachable"
	CodeUnusedHandle   = "unused-handle"
	CodeInvalidPayload = "invalid-payload"
)

// ErrInvalidFlow is wrapped by Report.Err when the flow has errors.
var ErrInvalidFlow = errors.New("invalid flow")

// Issue is a single lint finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	NodeID   string   `json:"node_id,omitempty"`
	EdgeID   string   `json:"edge_id,omitempty"`
	Handle   string   `json:"handle,omitempty"`
	Message  string   `json:"message"`
}

// Report is the result of Lint.
type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) add(sev Severity, code, msg string, opts ...func(*Issue)) {
	is := Issue{Severity: sev, Code: code, Message: msg}
	for _, o := range opts {
		o(&is)
	}
	r.Issues = append(r.Issues, is)
}

func node(id string) func(*Issue)   { return func(i *Issue) { i.NodeID = id } }
func edge(id string) func(*Issue)   { return func(i *Issue) { i.EdgeID = id } }
func handle(id string) func(*Issue) { return func(i *Issue) { i.Handle = id } }

// Count returns the number of issues of a severity.
func (r *Report) Count(sev Severity) int {
	n := 0
	for _, is := range r.Issues {
		if is.Severity == sev {
			n++
		}
	}
	return n
}

// Err returns nil unless the report holds errors.
func (r *Report) Err() error {
	var msgs []string
	for _, is := range r.Issues {
		if is.Severity == SeverityError {
			msgs = append(msgs, is.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: found %d errors:\n- %s", ErrInvalidFlow, len(msgs), strings.Join(msgs, "\n- "))
}

// Lint checks a graph for structural problems. Editing never enforces these;
// they are reported so authors can fix a flow before publishing it.
func Lint(g *domain.Graph) *Report {
	r := &Report{Issues: []Issue{}}
	if g == nil {
		g = domain.NewGraph()
	}

	nodes := make(map[string]domain.FlowNode, len(g.Nodes))
	var starts []string
	for _, n := range g.Nodes {
		if _, dup := nodes[n.ID]; dup {
			r.add(SeverityError, CodeDuplicateNode, fmt.Sprintf("node id %q is used more than once", n.ID), node(n.ID))
			continue
		}
		nodes[n.ID] = n
		if n.Type == domain.NodeTypeStart {
			starts = append(starts, n.ID)
		}
		if err := domain.CheckData(n.Type, n.Data); err != nil {
			r.add(SeverityError, CodeInvalidPayload, fmt.Sprintf("node %s: %v", n.ID, err), node(n.ID))
		}
	}

	switch {
	case len(g.Nodes) > 0 && len(starts) == 0:
		r.add(SeverityWarning, CodeNoStart, "flow has no START node")
	case len(starts) > 1:
		r.add(SeverityWarning, CodeMultipleStart, fmt.Sprintf("flow has %d START nodes", len(starts)))
	}

	adj := make(map[string][]string)
	used := make(map[string]bool)
	for _, e := range g.Edges {
		src, okSrc := nodes[e.Source]
		tgt, okTgt := nodes[e.Target]
		if !okSrc || !okTgt {
			missing := e.Source
			if okSrc {
				missing = e.Target
			}
			r.add(SeverityError, CodeDanglingEdge, fmt.Sprintf("edge %s references missing node %q", e.ID, missing), edge(e.ID))
			continue
		}
		if tgt.Type == domain.NodeTypeStart {
			r.add(SeverityWarning, CodeEdgeIntoStart, fmt.Sprintf("edge %s targets START node %s, which has no input", e.ID, tgt.ID), edge(e.ID), node(tgt.ID))
		}
		if e.SourceHandle != "" && !hasHandle(domain.OutputHandles(src), e.SourceHandle) {
			r.add(SeverityWarning, CodeUnknownHandle, fmt.Sprintf("edge %s leaves node %s from unknown handle %q", e.ID, src.ID, e.SourceHandle),
				edge(e.ID), node(src.ID), handle(e.SourceHandle))
		}
		used[e.Source+"\x00"+e.SourceHandle] = true
		adj[e.Source] = append(adj[e.Source], e.Target)
	}

	reached := reach(starts, adj)
	for _, n := range g.Nodes {
		if n.Type != domain.NodeTypeStart && len(starts) > 0 && !reached[n.ID] {
			r.add(SeverityWarning, CodeUnreachable, fmt.Sprintf("node %s (%s) is not reachable from START", n.ID, n.Type), node(n.ID))
		}
		for _, h := range domain.OutputHandles(n) {
			if !used[n.ID+"\x00"+h.ID] {
				label := h.ID
				if h.Label != "" {
					label = fmt.Sprintf("%s (%q)", h.ID, h.Label)
				}
				r.add(SeverityInfo, CodeUnusedHandle, fmt.Sprintf("node %s output %s is not connected", n.ID, label), node(n.ID), handle(h.ID))
			}
		}
	}
	return r
}

func hasHandle(hs []domain.Handle, id string) bool {
	for _, h := range hs {
		if h.ID == id {
			return true
		}
	}
	return false
}

// reach runs a breadth-first search from the roots.
func reach(roots []string, adj map[string][]string) map[string]bool {
	visited := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, next := range adj[current] {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	return visited
}
