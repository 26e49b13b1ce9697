package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/config"
	"github.com/kailas-cloud/casebud/internal/db"
	dbRedis "github.com/kailas-cloud/casebud/internal/db/redis"
	"github.com/kailas-cloud/casebud/internal/domain"
	"github.com/kailas-cloud/casebud/internal/domain/model"
	logpkg "github.com/kailas-cloud/casebud/internal/logger"
	"github.com/kailas-cloud/casebud/internal/metrics"
	"github.com/kailas-cloud/casebud/internal/repository/intentcache"
	chiTransport "github.com/kailas-cloud/casebud/internal/transport/chi"
	"github.com/kailas-cloud/casebud/internal/transport/httpclient"
	openaiTransport "github.com/kailas-cloud/casebud/internal/transport/openai"
	"github.com/kailas-cloud/casebud/internal/transport/serper"
	assistantuc "github.com/kailas-cloud/casebud/internal/usecase/assistant"
	"github.com/kailas-cloud/casebud/internal/usecase/docintent"
	"github.com/kailas-cloud/casebud/internal/usecase/generation"
	healthuc "github.com/kailas-cloud/casebud/internal/usecase/health"
	"github.com/kailas-cloud/casebud/internal/usecase/warmup"
	"github.com/kailas-cloud/casebud/internal/usecase/websearch"
	"github.com/kailas-cloud/casebud/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting casebud API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("provider", cfg.Provider.Name),
		zap.String("standard_model", cfg.Models.Standard),
		zap.String("deep_model", cfg.Models.Deep),
		zap.Bool("shared_cache", cfg.Cache.Enabled()),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterAssistantMetrics()

	ctx := context.Background()

	// One pooled client for every upstream call.
	pool := httpclient.New(httpclient.Config{
		MaxConnsPerHost:     cfg.Provider.MaxConnsPerHost,
		MaxIdleConnsPerHost: cfg.Provider.MaxIdleConnsPerHost,
		IdleConnTimeout:     time.Duration(cfg.Provider.IdleConnTimeoutSec) * time.Second,
	})
	defer pool.Close()

	completer := openaiTransport.NewCompleter(&openaiTransport.Config{
		APIKey:     cfg.Provider.APIKey,
		BaseURL:    cfg.Provider.BaseURL,
		Provider:   cfg.Provider.Name,
		Timeout:    cfg.Provider.Timeout(),
		HTTPClient: pool.Client(),
		Logger:     logger,
	})
	checkProvider(ctx, completer, cfg.Provider.Timeout(), logger)

	searcher := serper.NewClient(&serper.Config{
		APIKey:     cfg.Search.APIKey,
		BaseURL:    cfg.Search.BaseURL,
		Timeout:    cfg.Search.Timeout(),
		HTTPClient: pool.Client(),
		Logger:     logger,
	})

	gen := generation.New(completer, logger)

	standard := model.NewID(cfg.Models.Standard)
	deep := model.NewID(cfg.Models.Deep)

	tracker := warmup.New(gen, standard, deep, logger)
	warmCtx, cancelWarm := context.WithTimeout(ctx, time.Duration(cfg.Models.WarmupTimeoutSec)*time.Second)
	tracker.WarmUp(warmCtx)
	cancelWarm()
	if !tracker.AnyReady() {
		logger.Warn("No model passed warm-up; direct answers will fail until restart")
	}

	// Optional shared classification store.
	// Pass nil interface (not typed nil pointer!) when it is not configured.
	var store db.Store
	cacheOpts := []intentcache.Option{intentcache.WithCounter(metrics.ClassificationCacheTotal)}
	if cfg.Cache.Enabled() {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		if err := s.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
		store = s
		cacheOpts = append(cacheOpts, intentcache.WithStore(s, cfg.Cache.KeyPrefix))
	}

	intents, err := intentcache.New(cfg.Classifier.CacheSize, logger, cacheOpts...)
	if err != nil {
		logger.Fatal("Failed to create classification cache", zap.Error(err))
	}

	classifier := docintent.New(gen, intents, standard, logger)
	search := websearch.New(gen, searcher, standard, domain.SearchOptions{
		Limit:    cfg.Search.Limit,
		Region:   cfg.Search.Region,
		Language: cfg.Search.Language,
	}, logger)
	assistant := assistantuc.New(gen, search, classifier, tracker, logger)

	var pinger healthuc.StorePinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(tracker, pinger)

	server := chiTransport.NewServer(assistant, tracker, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:           cfg.Auth.APIKeys,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Background classifications finish before the store goes away.
	classifier.Close()
	if store != nil {
		store.Close()
	}

	logger.Info("Server stopped gracefully")
}

// checkProvider probes the language-model provider once at startup. Failure
// is logged, not fatal: warm-up decides per model availability.
func checkProvider(ctx context.Context, hc domain.HealthChecker, timeout time.Duration, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := hc.HealthCheck(ctx); err != nil {
		logger.Warn("Provider health check failed", zap.Error(err))
		return
	}
	logger.Info("Provider reachable")
}
