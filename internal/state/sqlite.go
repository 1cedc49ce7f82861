package state

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/lineal-labs/lineal/pkg/core"
)

// SQLiteStore implements core.GraphStore using SQLite. Concurrency is
// delegated to the driver and WAL mode: readers never block each other,
// writers serialize on the database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite graph store instance.
// If logger is nil, a discard logger is used.
func NewSQLiteStore(logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{logger: logger}
}

// Open opens a connection to the SQLite database and runs migrations.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Every pool connection to :memory: would get its own database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := migrate(db, "sqlite"); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.path = path
	s.logger.Debug("opened sqlite graph store", slog.String("path", path))
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// UpsertNode creates or updates the node, reviving it if soft-deleted.
func (s *SQLiteStore) UpsertNode(name string, typ core.NodeType, meta core.NodeMeta) (*core.Node, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	ts := now()
	_, err := s.db.Exec(`
		INSERT INTO nodes (name, type, owner, team, description, tags, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT (name) DO UPDATE SET
			type = excluded.type,
			owner = excluded.owner,
			team = excluded.team,
			description = excluded.description,
			tags = excluded.tags,
			updated_at = excluded.updated_at,
			deleted_at = NULL`,
		name, string(typ), meta.Owner, meta.Team, meta.Description, encodeTags(meta.Tags), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert node %s: %w", name, err)
	}

	return s.GetNode(name)
}

// UpsertEdge creates the edge unless a live (source, target) pair exists.
func (s *SQLiteStore) UpsertEdge(source, target string, typ core.EdgeType) (*core.Edge, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(`
		INSERT INTO edges (id, source, target, edge_type, created_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, NULL)
		ON CONFLICT (source, target) WHERE deleted_at IS NULL DO NOTHING`,
		uuid.New().String(), source, target, string(typ), now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert edge %s -> %s: %w", source, target, err)
	}

	row := s.db.QueryRow(`
		SELECT id, source, target, edge_type, created_at
		FROM edges
		WHERE source = ? AND target = ? AND deleted_at IS NULL`,
		source, target,
	)

	var e core.Edge
	var edgeType string
	if err := row.Scan(&e.ID, &e.Source, &e.Target, &edgeType, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to read edge %s -> %s: %w", source, target, err)
	}
	e.Type = core.EdgeType(edgeType)
	return &e, nil
}

// GetNode returns the named node, or core.ErrResourceNotFound.
func (s *SQLiteStore) GetNode(name string) (*core.Node, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(`
		SELECT name, type, owner, team, description, tags, created_at, updated_at
		FROM nodes
		WHERE name = ? AND deleted_at IS NULL`,
		name,
	)

	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, core.ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", name, err)
	}
	return node, nil
}

// OutgoingEdges returns the live edges leaving name, in insertion order.
func (s *SQLiteStore) OutgoingEdges(name string) ([]*core.Edge, error) {
	return s.edgesBy("source", name)
}

// IncomingEdges returns the live edges arriving at name, in insertion order.
func (s *SQLiteStore) IncomingEdges(name string) ([]*core.Edge, error) {
	return s.edgesBy("target", name)
}

func (s *SQLiteStore) edgesBy(column, name string) ([]*core.Edge, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`
		SELECT id, source, target, edge_type, created_at
		FROM edges
		WHERE `+column+` = ? AND deleted_at IS NULL
		ORDER BY created_at, id`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list edges of %s: %w", name, err)
	}

	edges, err := scanEdges(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan edges of %s: %w", name, err)
	}
	return edges, nil
}

// SoftDeleteNode marks the node deleted. Missing nodes are a no-op.
func (s *SQLiteStore) SoftDeleteNode(name string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	ts := now()
	_, err := s.db.Exec(`
		UPDATE nodes SET deleted_at = ?, updated_at = ?
		WHERE name = ? AND deleted_at IS NULL`,
		ts, ts, name,
	)
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", name, err)
	}
	return nil
}

// SoftDeleteEdge marks the live (source, target) edge deleted.
func (s *SQLiteStore) SoftDeleteEdge(source, target string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(`
		UPDATE edges SET deleted_at = ?
		WHERE source = ? AND target = ? AND deleted_at IS NULL`,
		now(), source, target,
	)
	if err != nil {
		return fmt.Errorf("failed to delete edge %s -> %s: %w", source, target, err)
	}
	return nil
}
