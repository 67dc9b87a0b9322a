package tui

import (
	"fmt"

	"github.com/aretw0/flowdeck/internal/validator"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/registry"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format of tables.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

func newWriter(m Mode) table.Writer {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return w
}

func render(w table.Writer, m Mode) string {
	if m == Markdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

// NodeTable lists the rendered views of a graph.
func NodeTable(views []registry.View, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"ID", "Kind", "Preview", "In", "Out"})
	for _, v := range views {
		w.AppendRow(table.Row{v.ID, v.Label, v.Preview, len(v.Inputs), len(v.Outputs)})
	}
	w.AppendFooter(table.Row{"", "", fmt.Sprintf("%d nodes", len(views)), "", ""})
	w.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 60},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	return render(w, m)
}

// EdgeTable lists the edges of a graph.
func EdgeTable(edges []domain.FlowEdge, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"ID", "Source", "Handle", "Target"})
	for _, e := range edges {
		w.AppendRow(table.Row{e.ID, e.Source, e.SourceHandle, e.Target})
	}
	return render(w, m)
}

// IssueTable lists lint findings.
func IssueTable(r *validator.Report, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{"Severity", "Code", "Node", "Message"})
	for _, is := range r.Issues {
		w.AppendRow(table.Row{is.Severity, is.Code, is.NodeID, is.Message})
	}
	w.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 80}})
	return render(w, m)
}

// ListTable prints one column of identifiers under header.
func ListTable(header string, ids []string, m Mode) string {
	w := newWriter(m)
	w.AppendHeader(table.Row{header})
	for _, id := range ids {
		w.AppendRow(table.Row{id})
	}
	return render(w, m)
}
