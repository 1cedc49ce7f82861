package core

import (
	"fmt"
	"strings"
	"time"
)

// NodeType represents the semantic type of a resource node.
type NodeType string

// Node type constants.
const (
	NodeTypeDataset NodeType = "DATASET"
	NodeTypeMetric  NodeType = "METRIC"
	NodeTypeTable   NodeType = "TABLE"
	NodeTypeView    NodeType = "VIEW"
)

// Valid reports whether t is a recognized node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeDataset, NodeTypeMetric, NodeTypeTable, NodeTypeView:
		return true
	}
	return false
}

// ParseNodeType parses a node type string (case-insensitive).
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown node type %q", s)
	}
	return t, nil
}

// EdgeType classifies how a dependency edge was established.
type EdgeType string

// Edge type constants.
const (
	// EdgeTypeDirect is an explicit table reference found in a resource's SQL.
	EdgeTypeDirect EdgeType = "DIRECT"
	// EdgeTypeIndirect is a dependency inferred through an intermediate resource.
	EdgeTypeIndirect EdgeType = "INDIRECT"
	// EdgeTypeManual is a user-declared dependency.
	EdgeTypeManual EdgeType = "MANUAL"
)

// Valid reports whether t is a recognized edge type.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeTypeDirect, EdgeTypeIndirect, EdgeTypeManual:
		return true
	}
	return false
}

// Direction selects which way a lineage traversal walks the graph.
type Direction string

// Traversal directions.
const (
	// DirectionUpstream walks toward producers (what the resource depends on).
	DirectionUpstream Direction = "upstream"
	// DirectionDownstream walks toward consumers (what depends on the resource).
	DirectionDownstream Direction = "downstream"
	// DirectionBoth performs both traversals independently and unions the results.
	DirectionBoth Direction = "both"
)

// Valid reports whether d is a recognized direction.
func (d Direction) Valid() bool {
	switch d {
	case DirectionUpstream, DirectionDownstream, DirectionBoth:
		return true
	}
	return false
}

// ParseDirection parses a direction string (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown direction %q", s)
	}
	return d, nil
}

// Node is a resource participating in lineage. Names are globally unique
// and case-sensitive; a node may exist with no edges at all.
type Node struct {
	// Name is the fully-qualified resource name (immutable once created).
	Name string `json:"name"`
	// Type is the resource type. Placeholder nodes created from SQL
	// references default to TABLE until registered as first-class resources.
	Type        NodeType  `json:"type"`
	Owner       string    `json:"owner,omitempty"`
	Team        string    `json:"team,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	// Deleted marks a soft-deleted node. Soft-deleted nodes are excluded
	// from lookups and traversal.
	Deleted bool `json:"-"`
}

// NodeMeta carries the mutable metadata applied on node upsert.
type NodeMeta struct {
	Owner       string
	Team        string
	Description string
	Tags        []string
}

// Edge is a directed dependency Source -> Target. The live (Source, Target)
// pair is unique; membership is append-only plus soft delete.
type Edge struct {
	ID        string    `json:"-"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Type      EdgeType  `json:"edgeType"`
	CreatedAt time.Time `json:"-"`
	Deleted   bool      `json:"-"`
}
