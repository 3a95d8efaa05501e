package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Lawguy81/cnslr-legal-platform/internal/cache"
	"github.com/Lawguy81/cnslr-legal-platform/internal/config"
	"github.com/Lawguy81/cnslr-legal-platform/internal/credential"
	"github.com/Lawguy81/cnslr-legal-platform/internal/gateway"
	"github.com/Lawguy81/cnslr-legal-platform/internal/ratelimit"
	"github.com/Lawguy81/cnslr-legal-platform/internal/render"
	"github.com/Lawguy81/cnslr-legal-platform/internal/server"
	"github.com/Lawguy81/cnslr-legal-platform/internal/store"
	"github.com/Lawguy81/cnslr-legal-platform/internal/upstream"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CNSLR API server",
	Long:  `Starts the HTTP API serving appeal submission, status lookup, document generation and wizard sessions.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides server.addr)")
}

func newBackend(cfg *config.Config, logger *log.Logger) upstream.Backend {
	if cfg.Upstream.Mode == config.ModeLive {
		return upstream.NewClient(cfg.Upstream.DisputesURL, cfg.Upstream.StatusURL, cfg.Upstream.APIKey, cfg.Upstream.Timeout)
	}
	logger.Println("Upstream mode is mock: appeals are recorded in memory only")
	return upstream.NewMock(
		upstream.WithRetention(cfg.Upstream.MockRetention),
		upstream.WithCapacity(cfg.Upstream.MockCapacity),
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	logger.Println("Starting CNSLR server...")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := credential.Resolve(cfg, credential.Open); err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if listenAddr != "" {
		addr = listenAddr
	}

	s, err := store.New(cfg.Store.DBPath)
	if err != nil {
		return err
	}
	defer s.Close()

	if n, err := s.PruneSessions(cmd.Context(), time.Now().Add(-cfg.Store.SessionMaxAge)); err != nil {
		logger.Printf("Warning: failed to prune sessions: %v", err)
	} else if n > 0 {
		logger.Printf("Pruned %d stale wizard sessions", n)
	}

	backend := newBackend(cfg, logger)
	submitLimiter := ratelimit.New(cfg.Limits.Submit.Requests, cfg.Limits.Submit.Window)
	statusLimiter := ratelimit.New(cfg.Limits.Status.Requests, cfg.Limits.Status.Window)

	srv := server.NewServer(server.Deps{
		Submissions: gateway.NewSubmissions(submitLimiter, backend, gateway.WithLogger(logger)),
		Statuses: gateway.NewStatuses(statusLimiter, backend,
			cache.New[*upstream.StatusRecord](cfg.Cache.StatusTTL, cache.WithLoadTimeout(cfg.Upstream.Timeout)), gateway.WithLogger(logger)),
		Renderer:       render.New(),
		Sessions:       s,
		StatusTTL:      cfg.Cache.StatusTTL,
		Mode:           cfg.Upstream.Mode,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DevDiagnostics: cfg.Server.DevDiagnostics,
		Logger:         logger,
	}, addr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := srv.Start()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Println("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Println("Shutdown complete")
	return nil
}
