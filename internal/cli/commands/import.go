package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lineal-labs/lineal/internal/manifest"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <manifest>",
		Short: "Register resources from a manifest file",
		Long: `Load a YAML resource manifest and register every resource and manual
edge it declares. Applying the same manifest twice is a no-op on the
graph.`,
		Example: `  # Import resources into the default backend
  lineal import resources.yaml

  # Import into a durable graph
  lineal import resources.yaml --backend sqlite --state lineal.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0])
		},
	}
	return cmd
}

func runImport(cmd *cobra.Command, path string) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := manifest.Apply(cmd.Context(), m, cc.Service, cc.Logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d resources, %d manual edges\n", n, len(m.Edges))
	return nil
}
