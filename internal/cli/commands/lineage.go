package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lineal-labs/lineal/pkg/core"
)

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	Direction string
	Depth     int
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage <resource>",
		Short: "Show lineage for a resource",
		Long: `Display the upstream dependencies and downstream dependents of a
resource, with each discovered node annotated by its signed distance
from the root (upstream negative, downstream positive).`,
		Example: `  # Full lineage in both directions
  lineal lineage analytics.orders

  # Only what the resource depends on
  lineal lineage analytics.orders --direction upstream

  # Limit traversal depth
  lineal lineage analytics.orders --depth 2

  # Output as JSON
  lineal lineage analytics.orders --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineage(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Direction, "direction", "both", "Traversal direction (upstream|downstream|both)")
	cmd.Flags().IntVar(&opts.Depth, "depth", -1, "Max traversal depth (-1 = unlimited)")

	return cmd
}

func runLineage(cmd *cobra.Command, resource string, opts *LineageOptions) error {
	dir, err := core.ParseDirection(opts.Direction)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	graph, err := cc.Service.Query(cmd.Context(), resource, dir, opts.Depth)
	truncated := errors.Is(err, core.ErrTraversalBounds)
	if err != nil && !truncated {
		return err
	}

	out := cmd.OutOrStdout()
	if cc.Cfg.Output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(graph)
	}

	renderLineageTable(out, graph)
	if truncated {
		fmt.Fprintln(out, "Warning: traversal hit a safety bound, result is incomplete")
	}
	return nil
}

func renderLineageTable(w io.Writer, g *core.LineageGraph) {
	fmt.Fprintf(w, "Lineage for: %s\n\n", g.Root.Name)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Depth", "Resource", "Type", "Owner", "Tags"})
	for _, n := range g.Nodes {
		t.AppendRow(table.Row{
			fmt.Sprintf("%+d", n.Depth),
			n.Name,
			n.Type,
			n.Owner,
			strings.Join(n.Tags, ", "),
		})
	}
	t.Render()

	fmt.Fprintf(w, "%d upstream, %d downstream, %d edges\n",
		g.TotalUpstream, g.TotalDownstream, len(g.Edges))
}
