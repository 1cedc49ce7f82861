package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lineal-labs/lineal/internal/manifest"
	"github.com/lineal-labs/lineal/internal/server"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port     int
	Manifest string
	Watch    bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the lineage HTTP server",
		Long: `Start an HTTP server exposing the lineage query surface.

Endpoints:
  GET    /lineage/{resource}   Lineage graph (direction, depth params)
  POST   /resources            Register a resource
  GET    /resources/{name}     Resource metadata
  DELETE /resources/{name}     Deregister a resource
  POST   /edges                Declare a manual dependency
  GET    /healthz              Health check`,
		Example: `  # Serve on the default port with the in-memory backend
  lineal serve

  # Serve a durable graph and load resources from a manifest
  lineal serve --backend sqlite --state lineal.db --manifest resources.yaml

  # Re-apply the manifest whenever it changes
  lineal serve --manifest resources.yaml --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8080)")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "Resource manifest applied at startup")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-apply the manifest on change")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// CLI flags override config file
	port := cc.Cfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	manifestPath := cc.Cfg.Manifest
	if opts.Manifest != "" {
		manifestPath = opts.Manifest
	}
	watch := cc.Cfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	if manifestPath != "" {
		m, err := manifest.Load(manifestPath)
		if err != nil {
			return err
		}
		n, err := manifest.Apply(cmd.Context(), m, cc.Service, cc.Logger)
		if err != nil {
			return fmt.Errorf("failed to apply manifest: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d resources from %s\n", n, manifestPath)
	}

	srv := server.NewServer(server.Config{
		Service:      cc.Service,
		Port:         port,
		ManifestPath: manifestPath,
		Watch:        watch,
		Logger:       cc.Logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}
