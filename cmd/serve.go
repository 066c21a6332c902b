package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dedupe/internal/api"
	"github.com/sells-group/dedupe/internal/dedupe"
	"github.com/sells-group/dedupe/internal/monitoring"
)

var servePort int

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		opts, err := scanOptions(cmd)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildHandler(env.Engine, monitoring.NewCollector(env.Store), opts),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func buildHandler(eng api.Engine, stats api.StatsCollector, scan dedupe.ScanOptions) http.Handler {
	return api.NewServer(eng, stats, api.Options{
		Scope:          cfg.Store.Scope,
		Scan:           scan,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	}).Handler()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&scanBlocking, "blocking", "none", "default blocking strategy for /v1/scan")
	serveCmd.Flags().IntVar(&scanConcurrency, "concurrency", 0, "default scan concurrency for /v1/scan")
	rootCmd.AddCommand(serveCmd)
}
