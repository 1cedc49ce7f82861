// Package traverse implements bounded, direction-aware breadth-first
// traversal over a lineage graph store.
//
// The walk is iterative with an explicit queue and a per-direction visited
// set keyed by node name, so it terminates on cyclic graphs and cannot blow
// the stack on deep ones. Safety ceilings on depth and total visited nodes
// bound the worst case on pathological graphs; hitting a ceiling is reported
// via core.ErrTraversalBounds rather than silently truncating.
package traverse

import (
	"errors"

	"github.com/lineal-labs/lineal/pkg/core"
)

// Default safety ceilings.
const (
	DefaultMaxDepth = 10
	DefaultMaxNodes = 5000
)

// Engine walks a core.GraphStore. It holds no mutable state of its own, so
// a single Engine may serve concurrent traversals.
type Engine struct {
	store    core.GraphStore
	maxDepth int
	maxNodes int
}

// Config holds configuration for a traversal engine.
type Config struct {
	Store core.GraphStore
	// MaxDepth caps transitive distance regardless of the requested depth.
	// Zero means DefaultMaxDepth.
	MaxDepth int
	// MaxNodes caps total visited nodes per traversal. Zero means
	// DefaultMaxNodes.
	MaxNodes int
}

// New creates a traversal engine over the given store.
func New(cfg Config) *Engine {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = DefaultMaxNodes
	}
	return &Engine{store: cfg.Store, maxDepth: cfg.MaxDepth, maxNodes: cfg.MaxNodes}
}

// MaxDepth returns the engine's depth ceiling.
func (e *Engine) MaxDepth() int { return e.maxDepth }

// Traverse computes the subgraph reachable from root in the given direction.
//
// maxDepth semantics: -1 is unlimited (still subject to the engine ceiling),
// 0 returns only the root with no edges, N > 0 limits transitive distance to
// N hops. Upstream hop N is reported as depth -N, downstream as +N, the root
// as 0. DirectionBoth runs both traversals independently from the root and
// unions the results.
//
// Returns core.ErrResourceNotFound if root is missing or soft-deleted. When
// a safety ceiling cuts the walk short, the truncated graph is returned
// together with core.ErrTraversalBounds.
func (e *Engine) Traverse(root string, dir core.Direction, maxDepth int) (*core.LineageGraph, error) {
	rootNode, err := e.store.GetNode(root)
	if err != nil {
		return nil, err
	}

	// Resolve the effective hop limit. A request deeper than the engine
	// ceiling is clamped; the cut is then reported as a bounds condition.
	limit := maxDepth
	clamped := false
	if limit < 0 || limit > e.maxDepth {
		if limit > e.maxDepth {
			clamped = true
		}
		limit = e.maxDepth
	}

	result := &core.LineageGraph{
		Root:  rootNode,
		Nodes: []core.LineageNode{{Node: rootNode, Depth: 0}},
		Edges: []*core.Edge{},
	}

	w := &walker{
		engine:   e,
		result:   result,
		budget:   e.maxNodes,
		clamped:  clamped,
		seenEdge: make(map[string]bool),
	}

	if dir == core.DirectionUpstream || dir == core.DirectionBoth {
		n, err := w.walk(root, limit, core.DirectionUpstream)
		if err != nil {
			return nil, err
		}
		result.TotalUpstream = n
	}
	if dir == core.DirectionDownstream || dir == core.DirectionBoth {
		n, err := w.walk(root, limit, core.DirectionDownstream)
		if err != nil {
			return nil, err
		}
		result.TotalDownstream = n
	}

	if w.truncated {
		result.Truncated = true
		return result, core.ErrTraversalBounds
	}
	return result, nil
}

// walker accumulates one Traverse call. The node budget and the traversed
// edge set are shared across both passes of a BOTH traversal; the visited
// set is not.
type walker struct {
	engine    *Engine
	result    *core.LineageGraph
	budget    int
	clamped   bool
	truncated bool
	seenEdge  map[string]bool
}

type queueItem struct {
	name  string
	depth int
}

// walk runs a single-direction BFS from root and returns the number of
// nodes discovered (root excluded).
func (w *walker) walk(root string, limit int, dir core.Direction) (int, error) {
	visited := map[string]bool{root: true}
	queue := []queueItem{{name: root, depth: 0}}
	found := 0

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		if item.depth >= limit {
			// Frontier cut: if the request was truly unbounded (or clamped)
			// and live edges continue past the ceiling, flag the cut.
			if w.clamped || limit == w.engine.maxDepth {
				more, err := w.hasLiveEdges(item.name, dir)
				if err != nil {
					return found, err
				}
				if more {
					w.truncated = true
				}
			}
			continue
		}

		edges, err := w.edges(item.name, dir)
		if err != nil {
			return found, err
		}

		for _, edge := range edges {
			next := edge.Source
			depth := -(item.depth + 1)
			if dir == core.DirectionDownstream {
				next = edge.Target
				depth = item.depth + 1
			}

			if !visited[next] {
				node, err := w.engine.store.GetNode(next)
				if errors.Is(err, core.ErrResourceNotFound) {
					// Endpoint soft-deleted underneath a live edge; skip
					// the edge entirely.
					continue
				}
				if err != nil {
					return found, err
				}

				if w.budget <= 0 {
					w.truncated = true
					return found, nil
				}
				w.budget--

				visited[next] = true
				found++
				w.result.Nodes = append(w.result.Nodes, core.LineageNode{Node: node, Depth: depth})
				queue = append(queue, queueItem{name: next, depth: item.depth + 1})
			}

			key := edge.Source + "\x00" + edge.Target
			if !w.seenEdge[key] {
				w.seenEdge[key] = true
				w.result.Edges = append(w.result.Edges, edge)
			}
		}
	}

	return found, nil
}

func (w *walker) edges(name string, dir core.Direction) ([]*core.Edge, error) {
	if dir == core.DirectionDownstream {
		return w.engine.store.OutgoingEdges(name)
	}
	return w.engine.store.IncomingEdges(name)
}

func (w *walker) hasLiveEdges(name string, dir core.Direction) (bool, error) {
	edges, err := w.edges(name, dir)
	if err != nil {
		return false, err
	}
	return len(edges) > 0, nil
}
