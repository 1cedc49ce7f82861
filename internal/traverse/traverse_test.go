package traverse

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lineal-labs/lineal/internal/graph"
	"github.com/lineal-labs/lineal/pkg/core"
)

// buildStore creates a store with the given edges, auto-creating nodes.
func buildStore(t *testing.T, edges [][2]string) *graph.MemoryStore {
	t.Helper()
	s := graph.NewMemoryStore()
	for _, e := range edges {
		for _, name := range e {
			if _, err := s.UpsertNode(name, core.NodeTypeTable, core.NodeMeta{}); err != nil {
				t.Fatalf("UpsertNode(%s) failed: %v", name, err)
			}
		}
		if _, err := s.UpsertEdge(e[0], e[1], core.EdgeTypeDirect); err != nil {
			t.Fatalf("UpsertEdge(%s, %s) failed: %v", e[0], e[1], err)
		}
	}
	return s
}

// depthOf returns the signed depth of name in the result, or ok=false.
func depthOf(g *core.LineageGraph, name string) (int, bool) {
	for _, n := range g.Nodes {
		if n.Name == name && n.Depth != 0 {
			return n.Depth, true
		}
	}
	return 0, false
}

func TestTraverse_NotFound(t *testing.T) {
	e := New(Config{Store: graph.NewMemoryStore()})

	g, err := e.Traverse("unknown.resource", core.DirectionBoth, -1)
	if !errors.Is(err, core.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
	if g != nil {
		t.Errorf("expected no partial result, got %+v", g)
	}
}

func TestTraverse_SoftDeletedRoot(t *testing.T) {
	s := buildStore(t, [][2]string{{"a", "b"}})
	_ = s.SoftDeleteNode("b")
	e := New(Config{Store: s})

	if _, err := e.Traverse("b", core.DirectionUpstream, -1); !errors.Is(err, core.ErrResourceNotFound) {
		t.Errorf("expected ErrResourceNotFound for deleted root, got %v", err)
	}
}

func TestTraverse_DepthZero(t *testing.T) {
	s := buildStore(t, [][2]string{{"a", "b"}, {"b", "c"}})
	e := New(Config{Store: s})

	g, err := e.Traverse("b", core.DirectionBoth, 0)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if len(g.Nodes) != 1 || g.Nodes[0].Name != "b" || g.Nodes[0].Depth != 0 {
		t.Errorf("expected only the root at depth 0, got %+v", g.Nodes)
	}
	if len(g.Edges) != 0 {
		t.Errorf("expected no edges at depth 0, got %d", len(g.Edges))
	}
	if g.TotalUpstream != 0 || g.TotalDownstream != 0 {
		t.Errorf("expected zero counts, got up=%d down=%d", g.TotalUpstream, g.TotalDownstream)
	}
}

func TestTraverse_ChainDepthLimit(t *testing.T) {
	// a -> b -> c
	s := buildStore(t, [][2]string{{"a", "b"}, {"b", "c"}})
	e := New(Config{Store: s})

	g, err := e.Traverse("c", core.DirectionUpstream, 1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if g.TotalUpstream != 1 {
		t.Errorf("expected 1 upstream node, got %d", g.TotalUpstream)
	}
	if d, ok := depthOf(g, "b"); !ok || d != -1 {
		t.Errorf("expected b at depth -1, got %d (found=%v)", d, ok)
	}
	if _, ok := depthOf(g, "a"); ok {
		t.Error("a beyond depth limit should not appear")
	}

	g, err = e.Traverse("c", core.DirectionUpstream, -1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if g.TotalUpstream != 2 {
		t.Errorf("expected 2 upstream nodes, got %d", g.TotalUpstream)
	}
	if d, _ := depthOf(g, "a"); d != -2 {
		t.Errorf("expected a at depth -2, got %d", d)
	}
}

func TestTraverse_UpstreamIncludesAllSources(t *testing.T) {
	s := buildStore(t, [][2]string{{"a", "b"}, {"x", "b"}, {"y", "b"}})
	e := New(Config{Store: s})

	g, err := e.Traverse("b", core.DirectionUpstream, -1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	for _, want := range []string{"a", "x", "y"} {
		if d, ok := depthOf(g, want); !ok || d != -1 {
			t.Errorf("expected %s at depth -1, got %d (found=%v)", want, d, ok)
		}
	}
}

func TestTraverse_CycleSafety(t *testing.T) {
	// a -> b -> c -> a
	s := buildStore(t, [][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}})
	e := New(Config{Store: s})

	g, err := e.Traverse("a", core.DirectionDownstream, -1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}

	seen := make(map[string]int)
	for _, n := range g.Nodes {
		seen[n.Name]++
	}
	for name, count := range seen {
		if count > 1 {
			t.Errorf("node %s appears %d times", name, count)
		}
	}
	if g.TotalDownstream != 2 {
		t.Errorf("expected 2 downstream nodes, got %d", g.TotalDownstream)
	}
}

func TestTraverse_SelfLoop(t *testing.T) {
	s := buildStore(t, [][2]string{{"a", "a"}})
	e := New(Config{Store: s})

	g, err := e.Traverse("a", core.DirectionDownstream, -1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if len(g.Nodes) != 1 {
		t.Errorf("self-loop should discover no new nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Errorf("self-loop edge should be reported once, got %d", len(g.Edges))
	}
}

func TestTraverse_ConcreteScenario(t *testing.T) {
	// a(raw) -> b(analytics) -> c(reporting), b -> d(metric)
	s := buildStore(t, [][2]string{{"a", "b"}, {"b", "c"}, {"b", "d"}})
	e := New(Config{Store: s})

	g, err := e.Traverse("b", core.DirectionDownstream, -1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if g.TotalDownstream != 2 {
		t.Errorf("expected totalDownstream 2, got %d", g.TotalDownstream)
	}
	for _, want := range []string{"c", "d"} {
		if d, ok := depthOf(g, want); !ok || d != 1 {
			t.Errorf("expected %s at depth +1, got %d (found=%v)", want, d, ok)
		}
	}

	g, err = e.Traverse("c", core.DirectionUpstream, -1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if g.TotalUpstream != 2 {
		t.Errorf("expected totalUpstream 2, got %d", g.TotalUpstream)
	}
	if d, _ := depthOf(g, "b"); d != -1 {
		t.Errorf("expected b at depth -1, got %d", d)
	}
	if d, _ := depthOf(g, "a"); d != -2 {
		t.Errorf("expected a at depth -2, got %d", d)
	}

	g, err = e.Traverse("c", core.DirectionUpstream, 1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if g.TotalUpstream != 1 {
		t.Errorf("expected totalUpstream 1, got %d", g.TotalUpstream)
	}
	if _, ok := depthOf(g, "a"); ok {
		t.Error("a should be excluded at depth 1")
	}
}

func TestTraverse_Both(t *testing.T) {
	s := buildStore(t, [][2]string{{"a", "b"}, {"b", "c"}})
	e := New(Config{Store: s})

	g, err := e.Traverse("b", core.DirectionBoth, -1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if g.TotalUpstream != 1 || g.TotalDownstream != 1 {
		t.Errorf("expected up=1 down=1, got up=%d down=%d", g.TotalUpstream, g.TotalDownstream)
	}
	if d, _ := depthOf(g, "a"); d != -1 {
		t.Errorf("expected a at depth -1, got %d", d)
	}
	if d, _ := depthOf(g, "c"); d != 1 {
		t.Errorf("expected c at depth +1, got %d", d)
	}
}

func TestTraverse_BothWithCycle_NodePerDirection(t *testing.T) {
	// In a 2-cycle, b is reachable both upstream and downstream of a and
	// must appear once per direction with its own signed depth.
	s := buildStore(t, [][2]string{{"a", "b"}, {"b", "a"}})
	e := New(Config{Store: s})

	g, err := e.Traverse("a", core.DirectionBoth, -1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}

	var depths []int
	for _, n := range g.Nodes {
		if n.Name == "b" {
			depths = append(depths, n.Depth)
		}
	}
	if len(depths) != 2 {
		t.Fatalf("expected b once per direction, got %v", depths)
	}
	if !((depths[0] == -1 && depths[1] == 1) || (depths[0] == 1 && depths[1] == -1)) {
		t.Errorf("expected depths -1 and +1, got %v", depths)
	}

	// The two cycle edges are distinct pairs and both reported, once each.
	if len(g.Edges) != 2 {
		t.Errorf("expected 2 edges, got %d", len(g.Edges))
	}
}

func TestTraverse_NodeBudget(t *testing.T) {
	// Star: root -> n0..n9
	edges := make([][2]string, 10)
	for i := range edges {
		edges[i] = [2]string{"root", fmt.Sprintf("n%d", i)}
	}
	s := buildStore(t, edges)
	e := New(Config{Store: s, MaxNodes: 5})

	g, err := e.Traverse("root", core.DirectionDownstream, -1)
	if !errors.Is(err, core.ErrTraversalBounds) {
		t.Fatalf("expected ErrTraversalBounds, got %v", err)
	}
	if g == nil {
		t.Fatal("expected partial result with bounds error")
	}
	if !g.Truncated {
		t.Error("partial result should be marked truncated")
	}
	if g.TotalDownstream != 5 {
		t.Errorf("expected 5 nodes within budget, got %d", g.TotalDownstream)
	}
}

func TestTraverse_DepthCeiling(t *testing.T) {
	// Chain of 6 hops with a ceiling of 3.
	edges := make([][2]string, 6)
	for i := range edges {
		edges[i] = [2]string{fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i+1)}
	}
	s := buildStore(t, edges)
	e := New(Config{Store: s, MaxDepth: 3})

	g, err := e.Traverse("n0", core.DirectionDownstream, -1)
	if !errors.Is(err, core.ErrTraversalBounds) {
		t.Fatalf("expected ErrTraversalBounds, got %v", err)
	}
	if g.TotalDownstream != 3 {
		t.Errorf("expected 3 nodes within ceiling, got %d", g.TotalDownstream)
	}

	// A request that exceeds the ceiling is clamped and flagged the same way.
	if _, err := e.Traverse("n0", core.DirectionDownstream, 5); !errors.Is(err, core.ErrTraversalBounds) {
		t.Errorf("expected ErrTraversalBounds for clamped request, got %v", err)
	}

	// A request within the ceiling that exhausts the chain is not flagged.
	if _, err := e.Traverse("n4", core.DirectionDownstream, 2); err != nil {
		t.Errorf("expected clean completion, got %v", err)
	}
}

func TestTraverse_SkipsSoftDeletedEndpoint(t *testing.T) {
	s := buildStore(t, [][2]string{{"a", "b"}, {"x", "b"}})
	_ = s.SoftDeleteNode("x")
	e := New(Config{Store: s})

	g, err := e.Traverse("b", core.DirectionUpstream, -1)
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	if g.TotalUpstream != 1 {
		t.Errorf("expected 1 upstream node, got %d", g.TotalUpstream)
	}
	if _, ok := depthOf(g, "x"); ok {
		t.Error("soft-deleted node should not appear")
	}
	if len(g.Edges) != 1 {
		t.Errorf("edge to soft-deleted node should be suppressed, got %d edges", len(g.Edges))
	}
}
