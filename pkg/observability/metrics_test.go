package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/flowdeck/internal/editor"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	ctx := context.Background()

	g := editor.New("F1", editor.WithLifecycleHooks(m.Hooks()))
	_, err := g.AddNode(ctx, domain.NodeDetails{Type: domain.NodeTypeStart})
	require.NoError(t, err)
	_, err = g.AddNode(ctx, domain.NodeDetails{Type: domain.NodeTypeText, Data: &domain.TextData{Label: "Hi"}})
	require.NoError(t, err)
	_, err = g.Connect(ctx, domain.Connection{Source: "1", Target: "2"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodesAdded.WithLabelValues("START")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NodesAdded.WithLabelValues("TEXT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EdgesAdded))

	hooks := m.Hooks()
	hooks.OnGraphLoaded(ctx, &domain.GraphEvent{Found: false})
	hooks.OnGraphLoaded(ctx, &domain.GraphEvent{Found: true})
	hooks.OnGraphSaved(ctx, &domain.GraphEvent{})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GraphLoads.WithLabelValues("empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GraphLoads.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GraphSaves))

	m.ObserveMessage(ctx, domain.MessageEvent{Type: domain.EventMessageNew})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConversationEvents.WithLabelValues("message_new")))
}

func TestMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg)
	assert.Panics(t, func() { observability.NewMetrics(reg) })
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	hooks := observability.LoggingHooks(logger)
	g := editor.New("F1", editor.WithLifecycleHooks(hooks))
	_, err := g.AddNode(context.Background(), domain.NodeDetails{Type: domain.NodeTypeStart})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "msg=node_added")
	assert.Contains(t, buf.String(), "flow_id=F1")
	assert.Contains(t, buf.String(), "type=START")
}
