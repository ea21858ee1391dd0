package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"passgate/internal/cache"
	"passgate/internal/handlers"
	"passgate/internal/httpserver"
	"passgate/internal/metrics"
	"passgate/internal/pwned"
	"passgate/internal/score"
	"passgate/internal/strength"
	"passgate/pkg/logging"
)

type Config struct {
	Port            string
	RoutePrefix     string
	ScoringEndpoint string

	PwnedBaseURL string
	PwnedTimeout time.Duration

	CacheTTL        time.Duration
	CacheMaxEntries int

	AlwaysReturnScore bool
}

func LoadConfig() Config {
	return Config{
		Port:            getenv("PORT", "8080"),
		RoutePrefix:     getenv("ROUTE_PREFIX", "/"),
		ScoringEndpoint: getenv("SCORING_ENDPOINT", "_score"),

		PwnedBaseURL: getenv("PWNED_BASE_URL", "https://api.pwnedpasswords.com"),
		PwnedTimeout: getenvDurationMs("PWNED_TIMEOUT_MS", 10_000),

		CacheTTL:        getenvDurationMs("CACHE_TTL_MS", 300_000),
		CacheMaxEntries: getenvInt("CACHE_MAX_ENTRIES", 1000),

		AlwaysReturnScore: getenvBool("ALWAYS_RETURN_SCORE", false),
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("passgate exited with error: %v", err)
	}
}

func run() error {
	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	// ----- Config -----
	cfg := LoadConfig()

	logger.Info("loaded config",
		zap.String("port", cfg.Port),
		zap.String("route_prefix", cfg.RoutePrefix),
		zap.String("scoring_endpoint", cfg.ScoringEndpoint),
		zap.String("pwned_base_url", cfg.PwnedBaseURL),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("cache_max_entries", cfg.CacheMaxEntries),
		zap.Bool("always_return_score", cfg.AlwaysReturnScore),
	)

	// ----- Result cache -----
	resultCache := cache.NewMemoryCache(cfg.CacheMaxEntries, cfg.CacheTTL)
	defer resultCache.Close()

	cacheStore := cache.NewLoggingCache(resultCache)

	// ----- Breach-check client -----
	checker, err := pwned.NewClient(pwned.Config{
		BaseURL:         cfg.PwnedBaseURL,
		UpstreamTimeout: cfg.PwnedTimeout,
	}, logger)
	if err != nil {
		return err
	}
	defer checker.Close()

	// ----- Evaluator -----
	evaluator := score.NewEvaluator(
		cacheStore,
		strength.NewZxcvbn(),
		checker,
		score.Options{AlwaysReturnScore: cfg.AlwaysReturnScore},
	)

	// ----- Handlers -----
	scoreHandler := handlers.NewScoreHandler(evaluator)

	// ----- Router + middleware -----
	r := chi.NewRouter()
	routes := httpserver.Routes{
		Prefix:          cfg.RoutePrefix,
		ScoringEndpoint: cfg.ScoringEndpoint,
	}
	httpserver.SetupRouter(r, logger, scoreHandler, routes)

	// ----- HTTP server -----
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting passgate",
		zap.String("addr", srv.Addr),
		zap.String("score_path", routes.ScorePath()),
	)

	// Start server in background
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// ----- Graceful shutdown -----
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}

// getenv returns the value of the environment variable key or def if not set.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDurationMs(key string, defMs int) time.Duration {
	return time.Duration(getenvInt(key, defMs)) * time.Millisecond
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
