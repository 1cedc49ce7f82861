package core

// LineageNode is a node discovered during traversal, annotated with its
// signed distance from the root: upstream hops are negative, downstream
// hops positive, the root itself is depth 0.
type LineageNode struct {
	*Node
	Depth int `json:"depth"`
}

// LineageGraph is the externally visible result of a lineage query.
// Nodes discovered at the same depth appear in the order their edges were
// enumerated by the store; callers needing stable ordering sort by name.
// A node reachable in both directions of a BOTH traversal appears once per
// direction, each with its own signed depth.
type LineageGraph struct {
	Root            *Node         `json:"root"`
	Nodes           []LineageNode `json:"nodes"`
	Edges           []*Edge       `json:"edges"`
	TotalUpstream   int           `json:"totalUpstream"`
	TotalDownstream int           `json:"totalDownstream"`
	// Truncated is set when a traversal safety ceiling (visited nodes or
	// depth) was reached and the graph is a bounded prefix of the full result.
	Truncated bool `json:"truncated,omitempty"`
}
