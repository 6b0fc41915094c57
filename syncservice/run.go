package syncservice

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/config"
	"github.com/reelfocus/reelfocus/internal/logger"
)

// Run starts the sync daemon and blocks until shutdown or a wiring error.
func Run() error {
	log := logger.New("reelfocus-syncd")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("user_id", cfg.UserID).
		Str("remote_url", cfg.RemoteURL).
		Str("data_dir", cfg.DataDir).
		Str("sync_interval", cfg.SyncInterval).
		Msg("Sync daemon starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := Build(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("wiring failed")
		return err
	}
	defer app.Close()

	if err := app.Bootstrap(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("profile bootstrap failed")
		return err
	}

	go app.Monitor.Start(ctx)
	go app.runSyncLoop(ctx)

	if cfg.MetricsPort > 0 {
		go serveMetrics(ctx, cfg, log)
	}

	<-ctx.Done()
	log.Info().Msg("Sync daemon shutting down")
	return nil
}

// runSyncLoop triggers a full sync on every reconnect and on a fixed
// interval while online. The first pass runs as soon as the monitor first
// reports the remote reachable.
func (a *App) runSyncLoop(ctx context.Context) {
	transitions := a.Monitor.Subscribe()
	ticker := time.NewTicker(a.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case online := <-transitions:
			if online {
				a.Log.Info().Msg("connectivity restored, syncing")
				a.Orch.FullSync(ctx)
			}
		case <-ticker.C:
			if a.Monitor.Online() {
				a.Orch.FullSync(ctx)
			}
		}
	}
}

// serveMetrics exposes the push-queue prometheus counters.
func serveMetrics(ctx context.Context, cfg *config.Config, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
	}()

	log.Info().Int("port", cfg.MetricsPort).Msg("metrics server starting")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server failed")
	}
}
