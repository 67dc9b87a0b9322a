package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/flowdeck/pkg/domain"
)

// ErrInvalidFlowID is returned for IDs that cannot be used as a file name.
var ErrInvalidFlowID = errors.New("invalid flow id")

const ext = ".json"

// Store implements ports.FlowStore using the local filesystem.
// Each flow is a JSON file named after its ID.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".flowdeck/flows".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".flowdeck", "flows")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(flowID string) (string, error) {
	if flowID == "" || flowID != filepath.Base(flowID) || strings.HasPrefix(flowID, ".") || strings.HasPrefix(flowID, "tmp-") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFlowID, flowID)
	}
	return filepath.Join(s.BasePath, flowID+ext), nil
}

// Save writes the graph atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, flowID string, graph *domain.Graph) error {
	destPath, err := s.path(flowID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure flow directory: %w", err)
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	return writeAtomic(s.BasePath, destPath, data)
}

// writeAtomic replaces destPath with data through a temp file in dir.
// dir must be on the same filesystem as destPath.
func writeAtomic(dir, destPath string, data []byte) error {
	tmpFile, err := os.CreateTemp(dir, "tmp-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing flow file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads the graph of a flow.
func (s *Store) Load(ctx context.Context, flowID string) (*domain.Graph, error) {
	p, err := s.path(flowID)
	if err != nil {
		return nil, err
	}
	g, err := ReadGraph(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrFlowNotFound
	}
	return g, err
}

// Delete removes the flow file. Deleting a missing flow is not an error.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	p, err := s.path(flowID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete flow file: %w", err)
	}
	return nil
}

// List returns the IDs of every stored flow, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ext))
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadGraph decodes a graph JSON file.
func ReadGraph(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read flow file: %w", err)
	}
	var g domain.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return &g, nil
}

// WriteGraph encodes a graph to path atomically.
func WriteGraph(path string, graph *domain.Graph) error {
	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	return writeAtomic(filepath.Dir(path), path, data)
}
