package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raine/vinscripted/config"
	"github.com/raine/vinscripted/internal/gateway"
	"github.com/raine/vinscripted/internal/llm"
	"github.com/raine/vinscripted/internal/logging"
	"github.com/raine/vinscripted/internal/ratelimit"
	"github.com/raine/vinscripted/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second

	// CachePruneInterval is how often expired analysis cache entries are removed.
	CachePruneInterval = time.Hour
)

func main() {
	config.LoadEnvFile()

	cfg, err := config.LoadGateway()
	if err != nil {
		logging.Init("info")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	analyzer, store := buildAnalyzer(ctx, cfg)
	if store != nil {
		defer store.Close()
	}

	limiter, err := ratelimit.New(cfg.RateLimitConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rate limiter")
	}
	log.Info().Str("driver", cfg.RateDriver).Int("limit", cfg.RateLimit).Dur("window", cfg.RateWindow).Msg("rate limiter initialized")

	if cfg.APIKey == "" {
		log.Warn().Msg("VINSCRIPTED_API_KEY not configured, API key validation disabled")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           gateway.New(cfg.APIKey, analyzer, limiter).Init(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if mem, ok := limiter.(*ratelimit.Memory); ok {
		g.Go(func() error {
			mem.Run(ctx)
			return nil
		})
	}

	if store != nil {
		g.Go(func() error {
			pruneCache(ctx, store, cfg.CacheMaxAge)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}

// buildAnalyzer returns nil when the provider credential is missing so the
// gateway can still start and report a configuration error per request.
func buildAnalyzer(ctx context.Context, cfg config.Gateway) (llm.Analyzer, *storage.SQLiteStore) {
	analyzer, err := llm.New(ctx, cfg.ProviderConfig())
	if errors.Is(err, llm.ErrMissingCredential) {
		log.Error().Str("provider", cfg.Provider).Msg("model provider credential not configured")
		return nil, nil
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize model provider")
	}
	log.Info().Str("provider", cfg.Provider).Msg("model provider initialized")

	if cfg.CacheDB == "" {
		return analyzer, nil
	}
	store, err := storage.NewSQLiteStore(cfg.CacheDB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open analysis cache")
	}
	log.Info().Str("dbPath", cfg.CacheDB).Msg("analysis caching enabled")
	return llm.NewCachedAnalyzer(analyzer, store), store
}

func pruneCache(ctx context.Context, store *storage.SQLiteStore, maxAge time.Duration) {
	ticker := time.NewTicker(CachePruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := store.PruneAnalysisCache(maxAge)
			if err != nil {
				log.Error().Err(err).Msg("failed to prune analysis cache")
				continue
			}
			if count > 0 {
				log.Info().Int64("pruned", count).Msg("pruned analysis cache")
			}
		}
	}
}
