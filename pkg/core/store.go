package core

import "context"

// GraphStore is the storage interface for lineage nodes and edges.
// Implementations must be safe for concurrent use: traversal reads must not
// block each other, and writes must be mutually exclusive per affected key.
//
// The in-memory adapter lives in internal/graph; durable adapters backed by
// SQLite and Postgres live in internal/state. The traversal engine depends
// only on this interface, so backends can be swapped by configuration
// without changing the engine's contract.
type GraphStore interface {
	// UpsertNode creates the node if absent, otherwise updates its type and
	// metadata. Idempotent; never errors on duplicate creation. Upserting a
	// soft-deleted node revives it.
	UpsertNode(name string, typ NodeType, meta NodeMeta) (*Node, error)

	// UpsertEdge creates the edge if the (source, target) pair does not
	// already exist among non-deleted edges. Idempotent. Both endpoints must
	// exist; auto-creating placeholders is the Lineage Service's job.
	UpsertEdge(source, target string, typ EdgeType) (*Edge, error)

	// GetNode returns the named node, or ErrResourceNotFound if it is
	// missing or soft-deleted.
	GetNode(name string) (*Node, error)

	// OutgoingEdges returns the live edges whose source is name, in
	// insertion order. A missing node yields an empty list, not an error.
	OutgoingEdges(name string) ([]*Edge, error)

	// IncomingEdges returns the live edges whose target is name, in
	// insertion order.
	IncomingEdges(name string) ([]*Edge, error)

	// SoftDeleteNode marks the node deleted, excluding it from reads.
	SoftDeleteNode(name string) error

	// SoftDeleteEdge marks the live (source, target) edge deleted.
	SoftDeleteEdge(source, target string) error

	// Close releases any resources held by the store.
	Close() error
}

// Extractor is the boundary to the SQL-parsing collaborator that turns a
// SQL string into the list of referenced resource names. Extraction is
// best-effort: callers treat any error as "no dependencies found" and must
// never fail resource registration because of it.
type Extractor interface {
	Extract(ctx context.Context, sql, dialect string) ([]string, error)
}
