package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/flowdeck/pkg/domain"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrStoreClosed is returned after Close.
var ErrStoreClosed = errors.New("sqlite store is closed")

// Store implements ports.FlowStore on a single SQLite table.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

// Open creates the store at path. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A :memory: database is private to its connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flows (
			flow_id TEXT PRIMARY KEY,
			nodes INTEGER NOT NULL,
			edges INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			graph BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Save implements ports.FlowStore.
func (s *Store) Save(ctx context.Context, flowID string, graph *domain.Graph) error {
	data, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flows (flow_id, nodes, edges, updated_at, graph)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(flow_id) DO UPDATE SET
			nodes = excluded.nodes,
			edges = excluded.edges,
			updated_at = excluded.updated_at,
			graph = excluded.graph
	`, flowID, len(graph.Nodes), len(graph.Edges), s.now().UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("save flow: %w", err)
	}
	return nil
}

// Load implements ports.FlowStore.
func (s *Store) Load(ctx context.Context, flowID string) (*domain.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT graph FROM flows WHERE flow_id = ?`, flowID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFlowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load flow: %w", err)
	}

	var g domain.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	return &g, nil
}

// Delete implements ports.FlowStore.
func (s *Store) Delete(ctx context.Context, flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM flows WHERE flow_id = ?`, flowID); err != nil {
		return fmt.Errorf("delete flow: %w", err)
	}
	return nil
}

// List implements ports.FlowStore.
func (s *Store) List(ctx context.Context) ([]string, error) {
	infos, err := s.Infos(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(infos))
	for i, info := range infos {
		ids[i] = info.FlowID
	}
	return ids, nil
}

// Info summarizes a stored flow without decoding its graph.
type Info struct {
	FlowID    string
	Nodes     int
	Edges     int
	UpdatedAt time.Time
}

// Infos lists every stored flow, ordered by ID.
func (s *Store) Infos(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT flow_id, nodes, edges, updated_at
		FROM flows
		ORDER BY flow_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		var info Info
		var updated string
		if err := rows.Scan(&info.FlowID, &info.Nodes, &info.Edges, &updated); err != nil {
			return nil, fmt.Errorf("scan flow info: %w", err)
		}
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flows: %w", err)
	}
	return infos, nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
