package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lineal-labs/lineal/pkg/core"
)

// RegisterOptions holds options for the register command.
type RegisterOptions struct {
	Type        string
	SQLFile     string
	Owner       string
	Team        string
	Description string
	Tags        []string
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand() *cobra.Command {
	opts := &RegisterOptions{}

	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a resource and record its dependencies",
		Long: `Register a data resource in the lineage graph.

When a SQL definition is supplied, table references are extracted from it
and recorded as depends-on edges. Extraction is best-effort: a SQL parse
failure registers the resource with no dependencies.`,
		Example: `  # Register a dataset with its defining SQL
  lineal register analytics.orders --type dataset --sql-file orders.sql

  # Register a metric with ownership metadata
  lineal register finance.revenue --type metric --owner finance-eng --team finance`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "dataset", "Resource type (dataset|metric|table|view)")
	cmd.Flags().StringVar(&opts.SQLFile, "sql-file", "", "File containing the resource's SQL definition")
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "Owning user")
	cmd.Flags().StringVar(&opts.Team, "team", "", "Owning team")
	cmd.Flags().StringVar(&opts.Description, "description", "", "Resource description")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "Free-form tag (repeatable)")

	return cmd
}

func runRegister(cmd *cobra.Command, name string, opts *RegisterOptions) error {
	typ, err := core.ParseNodeType(opts.Type)
	if err != nil {
		return err
	}

	var sql string
	if opts.SQLFile != "" {
		data, err := os.ReadFile(opts.SQLFile)
		if err != nil {
			return fmt.Errorf("failed to read SQL file: %w", err)
		}
		sql = string(data)
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	meta := core.NodeMeta{
		Owner:       opts.Owner,
		Team:        opts.Team,
		Description: opts.Description,
		Tags:        opts.Tags,
	}
	node, err := cc.Service.Register(cmd.Context(), name, typ, sql, meta)
	if err != nil {
		return err
	}

	deps, err := cc.Store.IncomingEdges(node.Name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s), %d dependencies\n", node.Name, node.Type, len(deps))
	return nil
}

// NewDeregisterCommand creates the deregister command.
func NewDeregisterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deregister <name>",
		Short: "Remove a resource from the lineage graph",
		Long: `Soft-delete a resource and all of its dependency edges.

The resource disappears from lookups and traversals but its history is
retained in durable backends.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := cc.Service.Deregister(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deregistered %s\n", args[0])
			return nil
		},
	}
	return cmd
}
