// Package cmd defines and implements the CLI for the openwax executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/JakeFAU/openwax/internal/app"
	"github.com/JakeFAU/openwax/internal/config"
	"github.com/JakeFAU/openwax/internal/logging"
	"github.com/JakeFAU/openwax/internal/score"
	"github.com/JakeFAU/openwax/internal/telemetry"
)

const (
	maxPort           = 65535
	readHeaderTimeout = 5 * time.Second
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "openwax [port]",
		Short: "Tracks per-URL scores submitted through a tracking pixel.",
		Long: `openwax records URL score submissions sent to /log, lists the most
recently updated pages at / and aggregates scores per domain at /search.

The optional port argument overrides server.port.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgFile, args)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); OPENWAX_* env vars override it")
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "openwax: %v\n", err)
		os.Exit(1)
	}
}

func run(parent context.Context, cfgFile string, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Server.Port = resolvePort(args, cfg.Server.Port)

	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() {
		// Sync returns ENOTTY when stderr is a terminal.
		_ = logger.Sync()
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracerProvider(ctx, telemetry.Config{
		Enabled:      cfg.Telemetry.TracingEnabled,
		ServiceName:  cfg.Telemetry.ServiceName,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Insecure:     cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("tracing init failed: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           a.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return serve(ctx, srv, a, cfg.ShutdownTimeout(), logger)
}

// resolvePort returns the port named by the first positional argument when it
// reads as an integer in 1..65535 (trailing characters after the digits are
// ignored), else configured.
func resolvePort(args []string, configured int) int {
	if len(args) == 0 {
		return configured
	}
	n, ok := score.ParseScore(args[0])
	if !ok || n < 1 || n > maxPort {
		return configured
	}
	return int(n)
}

// serve runs srv until ctx is canceled or the listener fails, then drains
// in-flight requests within shutdownTimeout and closes resources.
func serve(ctx context.Context, srv *http.Server, resources io.Closer, shutdownTimeout time.Duration, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = multierr.Append(serveErr, fmt.Errorf("http shutdown: %w", err))
	}
	serveErr = multierr.Append(serveErr, resources.Close())
	if serveErr == nil {
		logger.Info("server stopped cleanly")
	}
	return serveErr
}
