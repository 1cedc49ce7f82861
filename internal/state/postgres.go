package state

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/lineal-labs/lineal/pkg/core"
)

// PostgresStore implements core.GraphStore using PostgreSQL via pgx.
// It is the external-store migration target for deployments that outgrow
// the embedded SQLite backend; the interface contract is identical.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new Postgres graph store instance.
// If logger is nil, a discard logger is used.
func NewPostgresStore(logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresStore{logger: logger}
}

// Open connects to PostgreSQL with the given DSN and runs migrations.
func (s *PostgresStore) Open(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	if err := migrate(db, "postgres"); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	s.logger.Debug("opened postgres graph store")
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// UpsertNode creates or updates the node, reviving it if soft-deleted.
func (s *PostgresStore) UpsertNode(name string, typ core.NodeType, meta core.NodeMeta) (*core.Node, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	ts := now()
	_, err := s.db.Exec(`
		INSERT INTO nodes (name, type, owner, team, description, tags, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL)
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
func (s *PostgresStore) UpsertEdge(source, target string, typ core.EdgeType) (*core.Edge, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(`
		INSERT INTO edges (id, source, target, edge_type, created_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, NULL)
		ON CONFLICT (source, target) WHERE deleted_at IS NULL DO NOTHING`,
		uuid.New().String(), source, target, string(typ), now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert edge %s -> %s: %w", source, target, err)
	}

	row := s.db.QueryRow(`
		SELECT id, source, target, edge_type, created_at
		FROM edges
		WHERE source = $1 AND target = $2 AND deleted_at IS NULL`,
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
func (s *PostgresStore) GetNode(name string) (*core.Node, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(`
		SELECT name, type, owner, team, description, tags, created_at, updated_at
		FROM nodes
		WHERE name = $1 AND deleted_at IS NULL`,
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
func (s *PostgresStore) OutgoingEdges(name string) ([]*core.Edge, error) {
	return s.edgesBy("source", name)
}

// IncomingEdges returns the live edges arriving at name, in insertion order.
func (s *PostgresStore) IncomingEdges(name string) ([]*core.Edge, error) {
	return s.edgesBy("target", name)
}

func (s *PostgresStore) edgesBy(column, name string) ([]*core.Edge, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(`
		SELECT id, source, target, edge_type, created_at
		FROM edges
		WHERE `+column+` = $1 AND deleted_at IS NULL
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
func (s *PostgresStore) SoftDeleteNode(name string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	ts := now()
	_, err := s.db.Exec(`
		UPDATE nodes SET deleted_at = $1, updated_at = $2
		WHERE name = $3 AND deleted_at IS NULL`,
		ts, ts, name,
	)
	if err != nil {
		return fmt.Errorf("failed to delete node %s: %w", name, err)
	}
	return nil
}

// SoftDeleteEdge marks the live (source, target) edge deleted.
func (s *PostgresStore) SoftDeleteEdge(source, target string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	_, err := s.db.Exec(`
		UPDATE edges SET deleted_at = $1
		WHERE source = $2 AND target = $3 AND deleted_at IS NULL`,
		now(), source, target,
	)
	if err != nil {
		return fmt.Errorf("failed to delete edge %s -> %s: %w", source, target, err)
	}
	return nil
}
