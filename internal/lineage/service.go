// Package lineage orchestrates lineage registration and querying.
// It is the only component aware of both the graph store and the
// dependency extractor.
package lineage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lineal-labs/lineal/internal/traverse"
	"github.com/lineal-labs/lineal/pkg/core"
)

// DefaultExtractTimeout bounds the dependency-extraction call during
// registration. On timeout registration degrades to "no dependencies
// found" rather than failing.
const DefaultExtractTimeout = 5 * time.Second

// Service orchestrates registration-time graph construction and
// query-time traversal.
type Service struct {
	store     core.GraphStore
	extractor core.Extractor
	engine    *traverse.Engine
	dialect   string
	timeout   time.Duration
	logger    *slog.Logger
}

// Config holds service configuration.
type Config struct {
	Store     core.GraphStore
	Extractor core.Extractor
	Engine    *traverse.Engine
	// Dialect is the SQL dialect hint passed to the extractor.
	Dialect string
	// ExtractTimeout bounds the extractor call. Zero means
	// DefaultExtractTimeout.
	ExtractTimeout time.Duration
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// New creates a lineage service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := cfg.ExtractTimeout
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	engine := cfg.Engine
	if engine == nil {
		engine = traverse.New(traverse.Config{Store: cfg.Store})
	}
	return &Service{
		store:     cfg.Store,
		extractor: cfg.Extractor,
		engine:    engine,
		dialect:   cfg.Dialect,
		timeout:   timeout,
		logger:    logger,
	}
}

// Register records a resource and the depends-on edges inferred from its
// SQL. Dependencies not already known are created as TABLE placeholder
// nodes; their real type is corrected if they are later registered as
// first-class resources. Re-registering the same resource with the same
// SQL produces no duplicate edges and no errors.
//
// Extraction is best-effort: on extractor failure or timeout the resource
// is still registered, with an empty dependency list.
func (s *Service) Register(ctx context.Context, name string, typ core.NodeType, sql string, meta core.NodeMeta) (*core.Node, error) {
	if name == "" {
		return nil, &core.ValidationError{Param: "name", Message: "must not be empty"}
	}
	if !typ.Valid() {
		return nil, &core.ValidationError{Param: "type", Message: fmt.Sprintf("unknown node type %q", typ)}
	}

	deps := s.extractDeps(ctx, name, sql)

	node, err := s.store.UpsertNode(name, typ, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert node %s: %w", name, err)
	}

	for _, dep := range deps {
		if dep == name {
			// Cycles and self-references are tolerated data, but a resource
			// reading its own output is usually a modeling mistake.
			s.logger.Warn("self-referential dependency", slog.String("resource", name))
		}
		if err := s.ensurePlaceholder(dep); err != nil {
			return nil, err
		}
		if _, err := s.store.UpsertEdge(dep, name, core.EdgeTypeDirect); err != nil {
			return nil, fmt.Errorf("failed to upsert edge %s -> %s: %w", dep, name, err)
		}
	}

	s.logger.Info("registered lineage",
		slog.String("resource", name),
		slog.String("type", string(typ)),
		slog.Int("dependencies", len(deps)))

	return node, nil
}

// DeclareEdge records a user-declared MANUAL dependency source -> target,
// auto-creating placeholder nodes for unknown endpoints.
func (s *Service) DeclareEdge(ctx context.Context, source, target string) (*core.Edge, error) {
	if source == "" {
		return nil, &core.ValidationError{Param: "source", Message: "must not be empty"}
	}
	if target == "" {
		return nil, &core.ValidationError{Param: "target", Message: "must not be empty"}
	}
	if source == target {
		s.logger.Warn("self-referential manual edge", slog.String("resource", source))
	}

	if err := s.ensurePlaceholder(source); err != nil {
		return nil, err
	}
	if err := s.ensurePlaceholder(target); err != nil {
		return nil, err
	}

	edge, err := s.store.UpsertEdge(source, target, core.EdgeTypeManual)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert edge %s -> %s: %w", source, target, err)
	}
	return edge, nil
}

// Deregister soft-deletes a resource node and all of its live edges.
func (s *Service) Deregister(ctx context.Context, name string) error {
	if _, err := s.store.GetNode(name); err != nil {
		return err
	}

	out, err := s.store.OutgoingEdges(name)
	if err != nil {
		return fmt.Errorf("failed to list outgoing edges of %s: %w", name, err)
	}
	in, err := s.store.IncomingEdges(name)
	if err != nil {
		return fmt.Errorf("failed to list incoming edges of %s: %w", name, err)
	}
	for _, e := range append(out, in...) {
		if err := s.store.SoftDeleteEdge(e.Source, e.Target); err != nil {
			return fmt.Errorf("failed to delete edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}

	if err := s.store.SoftDeleteNode(name); err != nil {
		return fmt.Errorf("failed to delete node %s: %w", name, err)
	}

	s.logger.Info("deregistered lineage", slog.String("resource", name))
	return nil
}

// GetNode returns the named resource node.
func (s *Service) GetNode(ctx context.Context, name string) (*core.Node, error) {
	return s.store.GetNode(name)
}

// Query validates the parameters, walks the graph, and shapes the result.
// core.ErrResourceNotFound and core.ErrTraversalBounds propagate unchanged.
func (s *Service) Query(ctx context.Context, name string, dir core.Direction, depth int) (*core.LineageGraph, error) {
	if err := s.validateQuery(dir, depth); err != nil {
		return nil, err
	}
	return s.engine.Traverse(name, dir, depth)
}

// validateQuery rejects malformed parameters before traversal begins.
func (s *Service) validateQuery(dir core.Direction, depth int) error {
	if err := validation.Validate(string(dir),
		validation.Required,
		validation.In(
			string(core.DirectionUpstream),
			string(core.DirectionDownstream),
			string(core.DirectionBoth),
		),
	); err != nil {
		return &core.ValidationError{Param: "direction", Message: err.Error()}
	}

	if depth != -1 {
		if err := validation.Validate(depth,
			validation.Min(0),
			validation.Max(s.engine.MaxDepth()),
		); err != nil {
			return &core.ValidationError{Param: "depth", Message: err.Error()}
		}
	}
	return nil
}

// extractDeps invokes the extractor with a bounded timeout. Every failure
// mode degrades to an empty dependency list.
func (s *Service) extractDeps(ctx context.Context, name, sql string) []string {
	if sql == "" || s.extractor == nil {
		return nil
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	deps, err := s.extractor.Extract(extractCtx, sql, s.dialect)
	if err != nil {
		s.logger.Warn("dependency extraction failed, proceeding without dependencies",
			slog.String("resource", name),
			slog.Any("error", &core.ExtractionError{SQL: sql, Err: err}))
		return nil
	}
	return deps
}

// ensurePlaceholder creates a TABLE-typed node for an unknown dependency,
// leaving already-registered nodes untouched.
func (s *Service) ensurePlaceholder(name string) error {
	if _, err := s.store.GetNode(name); err == nil {
		return nil
	}
	if _, err := s.store.UpsertNode(name, core.NodeTypeTable, core.NodeMeta{}); err != nil {
		return fmt.Errorf("failed to create placeholder node %s: %w", name, err)
	}
	return nil
}
