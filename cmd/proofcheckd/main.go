// Command proofcheckd serves the submission verification API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/promohive/proofcheck"
	"github.com/promohive/proofcheck/internal/cache"
	"github.com/promohive/proofcheck/internal/config"
	"github.com/promohive/proofcheck/internal/events"
	"github.com/promohive/proofcheck/internal/logging"
	"github.com/promohive/proofcheck/internal/server"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := proofcheck.NewEnginePool(func(context.Context) (proofcheck.RecognitionEngine, error) {
		return proofcheck.NewHTTPEngine(proofcheck.HTTPEngineConfig{
			Endpoint: cfg.Engine.Endpoint,
			APIKey:   cfg.Engine.APIKey,
			Language: cfg.Engine.Language,
			Timeout:  cfg.Engine.RecognizeTimeout(),
		}), nil
	}, cfg.Engine.IdleWindow())
	defer pool.Close()

	verifier := &proofcheck.Config{
		Pool:             pool,
		RecognizeTimeout: cfg.Engine.RecognizeTimeout(),
	}

	var verdicts *cache.VerdictCache
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Error("redis connect", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		verdicts = cache.NewVerdictCache(client, cfg.Redis.TTL())
	}

	var publisher *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		p, err := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Error("kafka publisher", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		publisher = p
	}

	handler := server.New(server.Options{
		Verifier:  verifier,
		Cache:     verdicts,
		Events:    publisher,
		Log:       logger,
		MaxUpload: cfg.Server.MaxUploadMB << 20,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		grace := time.Duration(cfg.Server.ShutdownGrace) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", "error", err)
		}
	}()

	logger.Info("proofcheckd listening", "addr", cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", "error", err)
		os.Exit(1)
	}
}
