// Package manifest loads resource manifests: YAML files declaring data
// resources, their defining SQL, and any manually declared dependencies.
// Manifests stand in for the platform's resource-registration services in
// standalone deployments, and back the import command and watch mode.
package manifest

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/lineal-labs/lineal/internal/lineage"
	"github.com/lineal-labs/lineal/pkg/core"
)

// Resource declares a single data resource.
type Resource struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Owner       string   `yaml:"owner"`
	Team        string   `yaml:"team"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	SQL         string   `yaml:"sql"`
}

// Validate validates a resource declaration.
func (r Resource) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Type, validation.Required, validation.By(func(v any) error {
			_, err := core.ParseNodeType(v.(string))
			return err
		})),
	)
}

// Edge declares a manual dependency source -> target.
type Edge struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// Validate validates a manual edge declaration.
func (e Edge) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Source, validation.Required),
		validation.Field(&e.Target, validation.Required),
	)
}

// Manifest is a collection of resource and edge declarations.
type Manifest struct {
	Resources []Resource `yaml:"resources"`
	Edges     []Edge     `yaml:"edges"`
}

// Validate validates the whole manifest.
func (m *Manifest) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.Resources),
		validation.Field(&m.Edges),
	)
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

// Apply registers every resource and manual edge through the lineage
// service, in declaration order. It returns the number of resources
// registered. Registration is idempotent, so re-applying an unchanged
// manifest is a no-op on the graph.
func Apply(ctx context.Context, m *Manifest, svc *lineage.Service, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	for _, r := range m.Resources {
		typ, err := core.ParseNodeType(r.Type)
		if err != nil {
			return 0, fmt.Errorf("resource %s: %w", r.Name, err)
		}
		meta := core.NodeMeta{
			Owner:       r.Owner,
			Team:        r.Team,
			Description: r.Description,
			Tags:        r.Tags,
		}
		if _, err := svc.Register(ctx, r.Name, typ, r.SQL, meta); err != nil {
			return 0, fmt.Errorf("failed to register %s: %w", r.Name, err)
		}
	}

	for _, e := range m.Edges {
		if _, err := svc.DeclareEdge(ctx, e.Source, e.Target); err != nil {
			return 0, fmt.Errorf("failed to declare edge %s -> %s: %w", e.Source, e.Target, err)
		}
	}

	logger.Info("applied manifest",
		slog.Int("resources", len(m.Resources)),
		slog.Int("edges", len(m.Edges)))

	return len(m.Resources), nil
}
