// Package state provides durable core.GraphStore adapters backed by SQLite
// and PostgreSQL. The traversal engine never touches this package directly;
// it sees only the core.GraphStore interface, so the in-memory store and
// the durable stores are interchangeable by configuration.
package state

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lineal-labs/lineal/pkg/core"
)

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanNode reads a node row in the column order
// (name, type, owner, team, description, tags, created_at, updated_at).
func scanNode(row rowScanner) (*core.Node, error) {
	var n core.Node
	var typ, tags string
	if err := row.Scan(&n.Name, &typ, &n.Owner, &n.Team, &n.Description, &tags, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.Type = core.NodeType(typ)
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		// Corrupt tags read as nil.
		n.Tags = nil
	}
	return &n, nil
}

// scanEdges reads edge rows in the column order
// (id, source, target, edge_type, created_at).
func scanEdges(rows *sql.Rows) ([]*core.Edge, error) {
	defer rows.Close()

	edges := []*core.Edge{}
	for rows.Next() {
		var e core.Edge
		var typ string
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &typ, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = core.EdgeType(typ)
		edges = append(edges, &e)
	}
	return edges, rows.Err()
}

// encodeTags serializes tags as a JSON array, never null.
func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func now() time.Time {
	return time.Now().UTC()
}
