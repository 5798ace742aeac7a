package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"social-post-copilot/internal/config"
	"social-post-copilot/internal/domain/ports/gateway"
	"social-post-copilot/internal/infra/backend"
	"social-post-copilot/internal/infra/logging"
	"social-post-copilot/internal/infra/metrics"
	"social-post-copilot/internal/infra/nav"
	red "social-post-copilot/internal/infra/redis"
	"social-post-copilot/internal/infra/web"
	"social-post-copilot/internal/orchestrator"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Runtime.Dev {
		log.Printf("[DEV MODE] Enabled")
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Backend client ----
	client, err := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.AuthToken, cfg.Backend.Timeout)
	if err != nil {
		log.Fatalf("backend: %v", err)
	}

	// ---- Redis (optional session cache) ----
	var cache gateway.SessionCache
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		cache = red.NewSessionCache(redisClient, cfg.Redis.TTL)
	} else {
		logger.Warn().Msg("redis.url not set; session cache disabled")
	}

	// ---- Orchestration core ----
	sess := orchestrator.NewSessionContext(cfg.Backend.AuthToken, "")
	history := nav.NewHistory("/chat")
	notices := web.NewNoticeLog(50)

	watcher := orchestrator.NewJobWatcher(client, cfg.Orchestrator.PollInterval, logger)
	panel, err := orchestrator.NewPanelSync(history, client, client, sess, notices, cfg.Orchestrator.PostPath, logger)
	if err != nil {
		log.Fatalf("panel: %v", err)
	}
	panel.Bind()
	uploader := orchestrator.NewUploader(client, sess, logger)
	exchange := orchestrator.NewExchange(
		client, client, client, cache, watcher, panel, sess, history, notices,
		cfg.Orchestrator.SettleDelay, logger,
	)

	// ---- HTTP surfaces ----
	auth := web.NewAuthManager(cfg.Web.JWTSecret)
	server := web.NewServer(exchange, uploader, panel, watcher, sess, cache, notices, auth, logger)

	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Int("port", cfg.Web.Port).Msg("api server listening")
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info().Int("port", cfg.Metrics.Port).Msg("metrics server listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sig:
			logger.Info().Str("signal", s.String()).Msg("shutting down")
		case <-gctx.Done():
		}

		watcher.StopPolling()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = apiSrv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}
