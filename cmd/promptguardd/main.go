// Package main is the entry point for the promptguardd binary, the
// HTTP service that sanitizes prompts and model output.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptguard/promptguard/pkg/api"
	"github.com/promptguard/promptguard/pkg/config"
	"github.com/promptguard/promptguard/pkg/logging"
	"github.com/promptguard/promptguard/pkg/telemetry"
)

const (
	defaultLogLevel        = "info"
	shutdownTimeout        = 10 * time.Second
	defaultReadHeaderLimit = 5 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "promptguardd",
		Short: "Anonymization gateway for LLM traffic",
		Long: `promptguardd sanitizes prompts before they reach a language model and
restores redacted values in its responses. Placeholder/original pairs are
held in a per-request vault and returned to the caller on analyze
endpoints.

Example:
  promptguardd --config promptguard.yaml --listen :8000`,
		RunE: runServer,
	}

	rootCmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.Flags().StringP("listen", "a", "", "Listen address (overrides config)")
	rootCmd.Flags().StringP("log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("log-json", false, "Emit JSON logs")

	return rootCmd
}

func runServer(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	listenFlag, _ := cmd.Flags().GetString("listen")
	logLevel, _ := cmd.Flags().GetString("log-level")
	logJSON, _ := cmd.Flags().GetBool("log-json")

	logger := logging.NewLogger(logging.Config{Level: logLevel, JSON: logJSON})
	slog.SetDefault(logger)

	cfg := config.Default()
	var provider *config.FileProvider
	if configPath != "" {
		var err error
		provider, err = config.NewFileProvider(configPath, logger)
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		defer func() {
			if err := provider.Close(); err != nil {
				logger.Error("close config provider", "error", err)
			}
		}()
		cfg = provider.Current()
	}
	if listenFlag != "" {
		cfg.Listen = listenFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Environment: cfg.Telemetry.Environment,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}

	metrics := telemetry.NewMetrics()
	server, err := api.NewServer(cfg, logger, metrics)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	if provider != nil {
		go watchConfig(ctx, provider, server, logger)
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: defaultReadHeaderLimit,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting promptguardd", "listen", cfg.Listen, "config", configPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("flush traces failed", "error", err)
	}

	logger.Info("stopped")
	return nil
}

// watchConfig applies configuration updates to the running server until
// the context is cancelled. Rejected updates leave the active
// configuration in place.
func watchConfig(ctx context.Context, provider *config.FileProvider, server *api.Server, logger *slog.Logger) {
	updates := provider.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			if err := server.ApplyConfig(cfg); err != nil {
				logger.Error("configuration update rejected", "error", err)
				continue
			}
			logger.Info("configuration applied")
		}
	}
}
