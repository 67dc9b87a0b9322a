package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/flowdeck/pkg/adapters/file"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/aretw0/flowdeck/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func welcome(t *testing.T) *domain.Graph {
	t.Helper()
	b := dsl.New()
	b.Start().Go(b.Text("Hello"))
	g, err := b.Build()
	require.NoError(t, err)
	return g
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "flowdeck version "))
}

func TestGraphAndValidateCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "welcome.json")
	require.NoError(t, file.WriteGraph(path, welcome(t)))

	out, err := run(t, "graph", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))
	assert.Contains(t, out, "Hello")

	out, err = run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Graph is valid!")

	broken := welcome(t)
	broken.Edges[0].Target = "99"
	require.NoError(t, file.WriteGraph(path, broken))

	out, err = run(t, "validate", path)
	assert.ErrorContains(t, err, "validation failed")
	assert.Contains(t, out, "99")

	_, err = run(t, "graph", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFlowCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	t.Setenv("FLOWDECK_STORE_PATH", dir)
	t.Setenv("FLOWDECK_LOG_LEVEL", "off")

	out, err := run(t, "--store", "file", "flow", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "No flows found.")

	require.NoError(t, file.New(dir).Save(context.Background(), "F1", welcome(t)))

	out, err = run(t, "--store", "file", "flow", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "F1")

	out, err = run(t, "--store", "file", "flow", "inspect", "F1")
	require.NoError(t, err)
	assert.Contains(t, out, "Text Message")
	assert.Contains(t, strings.ToLower(out), "2 nodes")

	out, err = run(t, "--store", "file", "flow", "rm", "F1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed flow 'F1'")

	_, err = run(t, "--store", "file", "flow", "inspect", "F1")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestUnknownStoreDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "--store", "cassandra", "flow", "ls")
	assert.ErrorContains(t, err, "cassandra")
}
