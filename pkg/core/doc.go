// Package core defines the shared language of the lineal system.
//
// This package contains:
//   - Domain entities (Node, Edge, LineageGraph)
//   - Service interfaces (GraphStore, Extractor)
//   - The error taxonomy surfaced at the query boundary
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
