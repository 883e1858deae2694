package cmd

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

	"github.com/MeKo-Tech/fieldmark/internal/server"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the field matching API",
	Long: `Start an HTTP server that provides REST API endpoints for matching
OCR text fragments against the field mapping table.

The server provides the following endpoints:
  POST /match     - Run a matching pass over posted fragments
  GET  /mappings  - Return the published mapping table
  PUT  /mappings  - Replace the mapping table
  GET  /health    - Health check endpoint
  GET  /metrics   - Prometheus metrics
  GET  /ws/match  - WebSocket endpoint for streaming passes

Examples:
  fieldmark serve
  fieldmark serve --port 8080 --mappings mappings.yaml
  fieldmark serve --host 0.0.0.0 --port 3000 --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}

		maxBodyMB := cfg.Server.MaxBodyMB
		if cmd.Flags().Changed("max-body-size") {
			maxBodyMB, _ = cmd.Flags().GetInt64("max-body-size")
		}

		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		watch := cfg.Mappings.Watch
		if cmd.Flags().Changed("watch") {
			watch, _ = cmd.Flags().GetBool("watch")
		}

		rateLimitEnabled := cfg.Server.RateLimitEnabled
		if cmd.Flags().Changed("rate-limit-enabled") {
			rateLimitEnabled, _ = cmd.Flags().GetBool("rate-limit-enabled")
		}

		requestsPerMinute := cfg.Server.RequestsPerMinute
		if cmd.Flags().Changed("requests-per-minute") {
			requestsPerMinute, _ = cmd.Flags().GetInt("requests-per-minute")
		}

		requestsPerHour := cfg.Server.RequestsPerHour
		if cmd.Flags().Changed("requests-per-hour") {
			requestsPerHour, _ = cmd.Flags().GetInt("requests-per-hour")
		}

		// Validate port number
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serverConfig := server.Config{
			Host:              host,
			Port:              port,
			CORSOrigin:        corsOrigin,
			MaxBodyMB:         maxBodyMB,
			TimeoutSec:        timeout,
			MappingFile:       cfg.Mappings.File,
			WatchFile:         watch,
			Matcher:           cfg.Matcher,
			RateLimitEnabled:  rateLimitEnabled,
			RequestsPerMinute: requestsPerMinute,
			RequestsPerHour:   requestsPerHour,
		}

		matchServer, err := server.NewServer(serverConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}
		defer func() { _ = matchServer.Close() }()

		// No mapping file configured: publish the inline table if present.
		if cfg.Mappings.File == "" && len(cfg.Mappings.Fields) > 0 {
			table, err := cfg.BuildTable()
			if err != nil {
				return fmt.Errorf("failed to build mapping table: %w", err)
			}
			matchServer.Store().Replace(table)
		}

		mux := http.NewServeMux()
		matchServer.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeout) * time.Second,
			WriteTimeout:      time.Duration(timeout) * time.Second,
		}

		go func() {
			slog.Info("Starting field matching server", "host", host, "port", port,
				"rules", matchServer.Store().Snapshot().Len())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server shutdown completed")
		}

		if err := matchServer.Close(); err != nil {
			slog.Error("Server cleanup error", "error", err)
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int64("max-body-size", 10, "maximum request body size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Bool("watch", false, "watch the mapping file and republish on change")
	serveCmd.Flags().Bool("rate-limit-enabled", false, "enable request rate limiting")
	serveCmd.Flags().Int("requests-per-minute", 120, "rate limit: requests per minute per client")
	serveCmd.Flags().Int("requests-per-hour", 3600, "rate limit: requests per hour per client")
}
