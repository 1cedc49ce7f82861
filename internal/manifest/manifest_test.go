package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lineal-labs/lineal/internal/extract"
	"github.com/lineal-labs/lineal/internal/graph"
	"github.com/lineal-labs/lineal/internal/lineage"
	"github.com/lineal-labs/lineal/internal/testutil"
	"github.com/lineal-labs/lineal/pkg/core"
)

const sampleManifest = `
resources:
  - name: analytics.orders
    type: dataset
    owner: data-eng
    team: analytics
    tags: [core]
    sql: |
      SELECT * FROM raw.orders o JOIN raw.customers c ON o.cid = c.id
  - name: reporting.revenue
    type: metric
    sql: SELECT sum(total) FROM analytics.orders
edges:
  - source: external.feed
    target: analytics.orders
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resources.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	m, err := Load(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Resources) != 2 || len(m.Edges) != 1 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if m.Resources[0].Name != "analytics.orders" || m.Resources[0].Type != "dataset" {
		t.Errorf("unexpected resource: %+v", m.Resources[0])
	}
}

func TestLoad_Invalid(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeManifest(t, "resources: [nonsense")); err == nil {
		t.Error("expected error for malformed YAML")
	}
	if _, err := Load(writeManifest(t, "resources:\n  - name: x\n    type: spaceship\n")); err == nil {
		t.Error("expected error for unknown resource type")
	}
	if _, err := Load(writeManifest(t, "edges:\n  - source: a\n")); err == nil {
		t.Error("expected error for edge without target")
	}
}

func TestApply(t *testing.T) {
	m, err := Load(writeManifest(t, sampleManifest))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	store := graph.NewMemoryStore()
	svc := lineage.New(lineage.Config{
		Store:     store,
		Extractor: extract.NewSQLExtractor(nil),
		Logger:    testutil.NewTestLogger(t),
	})

	n, err := Apply(context.Background(), m, svc, testutil.NewTestLogger(t))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 resources applied, got %d", n)
	}

	// SQL dependencies and the manual edge are all in the graph
	in, _ := store.IncomingEdges("analytics.orders")
	if len(in) != 3 {
		t.Errorf("expected 3 incoming edges, got %d", len(in))
	}
	manual := false
	for _, e := range in {
		if e.Source == "external.feed" && e.Type == core.EdgeTypeManual {
			manual = true
		}
	}
	if !manual {
		t.Error("manual edge missing")
	}

	// Re-applying is a no-op
	if _, err := Apply(context.Background(), m, svc, nil); err != nil {
		t.Fatalf("re-apply failed: %v", err)
	}
	if store.EdgeCount() != 4 {
		t.Errorf("expected 4 edges after re-apply, got %d", store.EdgeCount())
	}
}
