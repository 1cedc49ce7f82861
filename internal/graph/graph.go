// Package graph provides the in-memory graph store for lineage nodes and
// edges. It keeps adjacency indices for both directions and tolerates
// cycles; acyclicity is never assumed.
package graph

import (
	"sync"
	"time"

	"github.com/lineal-labs/lineal/pkg/core"
)

// MemoryStore implements core.GraphStore with plain maps guarded by a
// reader/writer lock. Traversal reads take the read lock only, so
// concurrent queries do not block each other; an edge inserted by a
// concurrent registration mid-traversal may or may not be observed.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*core.Node
	out   map[string][]*core.Edge // source -> outgoing edges, insertion order
	in    map[string][]*core.Edge // target -> incoming edges, insertion order
}

// NewMemoryStore creates a new empty in-memory graph store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: make(map[string]*core.Node),
		out:   make(map[string][]*core.Edge),
		in:    make(map[string][]*core.Edge),
	}
}

// UpsertNode creates the node if absent, else updates type and metadata.
// A soft-deleted node is revived with the new metadata.
func (s *MemoryStore) UpsertNode(name string, typ core.NodeType, meta core.NodeMeta) (*core.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	n, ok := s.nodes[name]
	if !ok {
		n = &core.Node{Name: name, CreatedAt: now}
		s.nodes[name] = n
	}
	n.Type = typ
	n.Owner = meta.Owner
	n.Team = meta.Team
	n.Description = meta.Description
	n.Tags = append([]string(nil), meta.Tags...)
	n.UpdatedAt = now
	n.Deleted = false

	return copyNode(n), nil
}

// UpsertEdge adds source -> target if no live edge for the pair exists.
func (s *MemoryStore) UpsertEdge(source, target string, typ core.EdgeType) (*core.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.out[source] {
		if e.Target == target && !e.Deleted {
			return copyEdge(e), nil
		}
	}

	e := &core.Edge{
		Source:    source,
		Target:    target,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
	s.out[source] = append(s.out[source], e)
	s.in[target] = append(s.in[target], e)
	return copyEdge(e), nil
}

// GetNode returns the named node or core.ErrResourceNotFound.
func (s *MemoryStore) GetNode(name string) (*core.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[name]
	if !ok || n.Deleted {
		return nil, core.ErrResourceNotFound
	}
	return copyNode(n), nil
}

// OutgoingEdges returns the live edges leaving name, in insertion order.
func (s *MemoryStore) OutgoingEdges(name string) ([]*core.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return liveEdges(s.out[name]), nil
}

// IncomingEdges returns the live edges arriving at name, in insertion order.
func (s *MemoryStore) IncomingEdges(name string) ([]*core.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return liveEdges(s.in[name]), nil
}

// SoftDeleteNode marks the node deleted. Missing nodes are a no-op so the
// operation stays idempotent.
func (s *MemoryStore) SoftDeleteNode(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.nodes[name]; ok {
		n.Deleted = true
		n.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// SoftDeleteEdge marks the live (source, target) edge deleted.
func (s *MemoryStore) SoftDeleteEdge(source, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.out[source] {
		if e.Target == target && !e.Deleted {
			e.Deleted = true
		}
	}
	return nil
}

// Close implements core.GraphStore. The memory store holds no resources.
func (s *MemoryStore) Close() error { return nil }

// NodeCount returns the number of live nodes.
func (s *MemoryStore) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.nodes {
		if !n.Deleted {
			count++
		}
	}
	return count
}

// EdgeCount returns the number of live edges.
func (s *MemoryStore) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, edges := range s.out {
		for _, e := range edges {
			if !e.Deleted {
				count++
			}
		}
	}
	return count
}

func liveEdges(edges []*core.Edge) []*core.Edge {
	result := make([]*core.Edge, 0, len(edges))
	for _, e := range edges {
		if !e.Deleted {
			result = append(result, copyEdge(e))
		}
	}
	return result
}

// copyNode returns a defensive copy so callers never hold a pointer into
// the locked maps.
func copyNode(n *core.Node) *core.Node {
	c := *n
	c.Tags = append([]string(nil), n.Tags...)
	return &c
}

func copyEdge(e *core.Edge) *core.Edge {
	c := *e
	return &c
}
