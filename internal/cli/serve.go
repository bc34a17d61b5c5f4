package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mitchk23/disaster-intel-tool/internal/adapter/httpapi"
	"github.com/mitchk23/disaster-intel-tool/internal/config"
	"github.com/mitchk23/disaster-intel-tool/internal/observability"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the snapshot HTTP service",
	Long: `Serve starts the HTTP API (GET /v1/snapshot) plus health, readiness, and
metrics endpoints. Configuration comes from the environment; see the README
for the variable list.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	engine, closers, err := buildEngine(cfg, logger, metrics)
	if err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, engine, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Prime the payload cache so the first snapshot request is fast and
	// readiness reflects actual feed reachability.
	go engine.Warm(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeAll(closers, logger)

	logger.Info("shutdown complete")
	return nil
}
