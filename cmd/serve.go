package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/khanhnv2901/endpoint-analyzer/internal/analyzer"
	"github.com/khanhnv2901/endpoint-analyzer/internal/api"
	"github.com/khanhnv2901/endpoint-analyzer/internal/banner"
	"github.com/khanhnv2901/endpoint-analyzer/internal/logging"
	consts "github.com/khanhnv2901/endpoint-analyzer/internal/shared/constants"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analyzer as an HTTP API service",
	Long: `Serve POST /api/v1/analyze (alias POST /analyze), GET /api/v1/health
(alias GET /health) and GET /api/v1/ready.

The listen address defaults to 127.0.0.1:3000, or :$PORT when the PORT
environment variable is set and no address is configured.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	appCtx := getAppContext(cmd)
	flags := cmd.Flags()

	settings := resolveServeConfig(flags, appCtx.Config.Serve)
	probe := resolveAnalyzeConfig(flags, appCtx.Config.Analyze)
	noBanner, _ := flags.GetBool("no-banner")

	logFile, err := resolveLogFile(appCtx.DataDir, settings.LogFile)
	if err != nil {
		return err
	}
	logger, closeLogger, err := logging.New(logging.Config{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		File:   logFile,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer closeLogger()

	server := api.NewServer(api.Config{
		Analyzer:     analyzer.New(analyzerOptions(probe, appCtx.Config.Scoring, logger)),
		AllowPrivate: probe.AllowPrivate,
		AuthToken:    settings.AuthToken,
		Version:      Version,
		Logger:       logger,
		CORSOrigins:  settings.CORSOrigins,
		RateLimit:    settings.RateLimit,
		RateBurst:    settings.RateBurst,

		TrustForwarded: settings.TrustForwarded,
	})

	httpServer := &http.Server{
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout(probe),
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", settings.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", settings.Addr, err)
	}

	if !noBanner {
		banner.Print(cmd.OutOrStdout(), consts.ServiceName, Version, ln.Addr().String())
	}
	logger.Info("server_started",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("auth", settings.AuthToken != ""),
		zap.Int("rate_limit", settings.RateLimit),
		zap.Bool("trust_forwarded", settings.TrustForwarded),
		zap.Bool("allow_private", probe.AllowPrivate),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serveUntil(ctx, httpServer, ln, settings.ShutdownTimeout); err != nil {
		logger.Error("server_stopped", zap.Error(err))
		return err
	}
	logger.Info("server_stopped")
	return nil
}

// serveUntil serves on ln until ctx is done, then shuts down gracefully,
// forcing connections closed if shutdownTimeout elapses first.
func serveUntil(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		if closeErr := srv.Close(); closeErr != nil {
			return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
		}
		return fmt.Errorf("failed to gracefully shutdown server: %w", err)
	}
	return nil
}

// writeTimeout covers a worst-case probe: the DNS lookup plus every hop of
// the redirect chain and the TLS handshake, each bounded by the request
// timeout.
func writeTimeout(probe AnalyzeConfig) time.Duration {
	perHop := time.Duration(probe.TimeoutMs) * time.Millisecond
	dns := time.Duration(probe.DNSTimeoutMs) * time.Millisecond
	hops := probe.MaxRedirects + 2
	return dns + time.Duration(hops)*perHop + 10*time.Second
}

func addServeFlags(fs *pflag.FlagSet) {
	defaults := newCLIConfig().Serve
	fs.String("addr", defaults.Addr, "Address for the API server")
	fs.String("auth-token", "", "Shared secret required in X-Auth-Token for analyze requests")
	fs.StringSlice("cors-origins", []string{}, "Allowed CORS origins (empty = allow all)")
	fs.Int("rate-limit", defaults.RateLimit, "Rate limit per IP (requests/second, 0 = disabled)")
	fs.Int("rate-burst", defaults.RateBurst, "Rate limit burst size")
	fs.Bool("trust-forwarded", false, "Rate limit on X-Forwarded-For/X-Real-IP (only behind a trusted proxy)")
	fs.Duration("shutdown-timeout", defaults.ShutdownTimeout, "Graceful shutdown timeout")
	fs.String("log-file", "", "Also write JSON logs to this file (relative names land in <data-dir>/logs)")
	fs.String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	fs.Bool("no-banner", false, "Do not print the startup banner")
	addProbeFlags(fs)
}

func init() {
	addServeFlags(serveCmd.Flags())
}
