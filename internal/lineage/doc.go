// Package lineage implements the resource lifecycle on top of the graph
// store: registering resources, extracting their SQL dependencies,
// declaring manual edges, and answering lineage queries.
//
// Extraction is best effort. A resource whose SQL cannot be parsed is
// still registered; the failure is logged and the resource simply has no
// extracted edges until it is re-registered with valid SQL.
package lineage
