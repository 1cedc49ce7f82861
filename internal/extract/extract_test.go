package extract

import (
	"context"
	"reflect"
	"testing"
)

func extractAll(t *testing.T, sql string) []string {
	t.Helper()
	x := NewSQLExtractor(nil)
	refs, err := x.Extract(context.Background(), sql, "ansi")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	return refs
}

func TestExtract_SimpleSelect(t *testing.T) {
	refs := extractAll(t, `SELECT id, name FROM users`)
	if !reflect.DeepEqual(refs, []string{"users"}) {
		t.Errorf("expected [users], got %v", refs)
	}
}

func TestExtract_QualifiedNames(t *testing.T) {
	refs := extractAll(t, `SELECT * FROM analytics.orders o JOIN warehouse.public.customers c ON o.cid = c.id`)
	want := []string{"analytics.orders", "warehouse.public.customers"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("expected %v, got %v", want, refs)
	}
}

func TestExtract_Joins(t *testing.T) {
	sql := `SELECT *
FROM orders o
LEFT JOIN customers c ON o.cid = c.id
INNER JOIN regions r ON c.rid = r.id`
	refs := extractAll(t, sql)
	want := []string{"orders", "customers", "regions"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("expected %v, got %v", want, refs)
	}
}

func TestExtract_CommaSeparatedFromList(t *testing.T) {
	refs := extractAll(t, `SELECT * FROM a, b, c WHERE a.id = b.id`)
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("expected %v, got %v", want, refs)
	}
}

func TestExtract_Deduplicates(t *testing.T) {
	refs := extractAll(t, `SELECT * FROM orders o1 JOIN orders o2 ON o1.id = o2.parent_id`)
	if !reflect.DeepEqual(refs, []string{"orders"}) {
		t.Errorf("expected [orders], got %v", refs)
	}
}

func TestExtract_CTEFiltered(t *testing.T) {
	sql := `WITH recent AS (
    SELECT * FROM raw.events WHERE day > '2024-01-01'
)
SELECT * FROM recent JOIN dim.users u ON recent.uid = u.id`
	refs := extractAll(t, sql)
	want := []string{"raw.events", "dim.users"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("expected %v, got %v", want, refs)
	}
}

func TestExtract_ChainedCTEs(t *testing.T) {
	sql := `WITH a AS (SELECT * FROM src.one),
     b (x, y) AS (SELECT * FROM a JOIN src.two t ON a.id = t.id)
SELECT * FROM b`
	refs := extractAll(t, sql)
	want := []string{"src.one", "src.two"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("expected %v, got %v", want, refs)
	}
}

func TestExtract_RecursiveCTE(t *testing.T) {
	sql := `WITH RECURSIVE tree AS (
    SELECT id, parent FROM nodes WHERE parent IS NULL
    UNION ALL
    SELECT n.id, n.parent FROM nodes n JOIN tree t ON n.parent = t.id
)
SELECT * FROM tree`
	refs := extractAll(t, sql)
	if !reflect.DeepEqual(refs, []string{"nodes"}) {
		t.Errorf("expected [nodes], got %v", refs)
	}
}

func TestExtract_Subquery(t *testing.T) {
	refs := extractAll(t, `SELECT * FROM (SELECT * FROM raw.clicks) t`)
	if !reflect.DeepEqual(refs, []string{"raw.clicks"}) {
		t.Errorf("expected [raw.clicks], got %v", refs)
	}
}

func TestExtract_QuotedIdentifiers(t *testing.T) {
	tests := []struct {
		sql  string
		want []string
	}{
		{`SELECT * FROM "Order Items"`, []string{"Order Items"}},
		{"SELECT * FROM `events`", []string{"events"}},
		{`SELECT * FROM [dbo].[Users]`, []string{"dbo.Users"}},
	}
	for _, tt := range tests {
		refs := extractAll(t, tt.sql)
		if !reflect.DeepEqual(refs, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.sql, tt.want, refs)
		}
	}
}

func TestExtract_QuotedNameShadowingCTE(t *testing.T) {
	// A quoted reference is taken literally, not folded against CTE names.
	sql := `WITH events AS (SELECT 1) SELECT * FROM "events"`
	refs := extractAll(t, sql)
	if !reflect.DeepEqual(refs, []string{"events"}) {
		t.Errorf("expected quoted [events] kept, got %v", refs)
	}
}

func TestExtract_TableFunctionSkipped(t *testing.T) {
	refs := extractAll(t, `SELECT * FROM unnest(tags) AS tag`)
	if len(refs) != 0 {
		t.Errorf("expected no refs for table function, got %v", refs)
	}
}

func TestExtract_CommentsAndStrings(t *testing.T) {
	sql := `-- FROM commented_out
SELECT 'FROM literal_table', name
/* FROM block_commented */
FROM real_table`
	refs := extractAll(t, sql)
	if !reflect.DeepEqual(refs, []string{"real_table"}) {
		t.Errorf("expected [real_table], got %v", refs)
	}
}

func TestExtract_Union(t *testing.T) {
	refs := extractAll(t, `SELECT id FROM north UNION ALL SELECT id FROM south`)
	want := []string{"north", "south"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("expected %v, got %v", want, refs)
	}
}

func TestExtract_Empty(t *testing.T) {
	if refs := extractAll(t, ""); len(refs) != 0 {
		t.Errorf("expected no refs for empty SQL, got %v", refs)
	}
	if refs := extractAll(t, "not really sql at all"); len(refs) != 0 {
		t.Errorf("expected no refs for junk input, got %v", refs)
	}
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x := NewSQLExtractor(nil)
	if _, err := x.Extract(ctx, "SELECT 1", "ansi"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
