// Package server exposes the lineage query surface over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/lineal-labs/lineal/internal/lineage"
	"github.com/lineal-labs/lineal/internal/manifest"
)

// Server is the lineage HTTP server.
type Server struct {
	svc          *lineage.Service
	port         int
	watch        bool
	manifestPath string
	logger       *slog.Logger
}

// Config holds configuration for the HTTP server.
type Config struct {
	Service *lineage.Service
	Port    int
	// ManifestPath, when set, is a resource manifest applied on startup
	// and re-applied on change when Watch is enabled.
	ManifestPath string
	Watch        bool
	Logger       *slog.Logger
}

// NewServer creates a new server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		svc:          cfg.Service,
		port:         cfg.Port,
		watch:        cfg.Watch,
		manifestPath: cfg.ManifestPath,
		logger:       logger,
	}
}

// Serve starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting lineage server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	s.routes(r)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Watch the manifest if enabled
	if s.watch && s.manifestPath != "" {
		eg.Go(func() error {
			return s.watchManifest(egctx)
		})
	}

	// Start HTTP server
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down lineage server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchManifest re-applies the resource manifest whenever it changes on
// disk. Reload and apply errors are logged, never fatal.
func (s *Server) watchManifest(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the containing directory: editors replace files on save,
	// which drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(s.manifestPath)); err != nil {
		s.logger.Error("failed to watch manifest directory", "error", err)
		return nil
	}

	target := filepath.Clean(s.manifestPath)

	// Debounce timer
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("manifest changed, re-applying", "file", event.Name)
				m, err := manifest.Load(s.manifestPath)
				if err != nil {
					s.logger.Error("manifest reload failed", "error", err)
					return
				}
				if _, err := manifest.Apply(ctx, m, s.svc, s.logger); err != nil {
					s.logger.Error("manifest apply failed", "error", err)
				}
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}
