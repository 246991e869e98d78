package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/newslens-cloud/newslens/internal/config"
	"github.com/newslens-cloud/newslens/internal/db"
	dbRedis "github.com/newslens-cloud/newslens/internal/db/redis"
	"github.com/newslens-cloud/newslens/internal/domain"
	"github.com/newslens-cloud/newslens/internal/index"
	logpkg "github.com/newslens-cloud/newslens/internal/logger"
	"github.com/newslens-cloud/newslens/internal/metrics"
	articlesrepo "github.com/newslens-cloud/newslens/internal/repository/articles"
	"github.com/newslens-cloud/newslens/internal/repository/embcache"
	chiTransport "github.com/newslens-cloud/newslens/internal/transport/chi"
	"github.com/newslens-cloud/newslens/internal/transport/newsapi"
	openaiEmb "github.com/newslens-cloud/newslens/internal/transport/openai"
	embeddinguc "github.com/newslens-cloud/newslens/internal/usecase/embedding"
	healthuc "github.com/newslens-cloud/newslens/internal/usecase/health"
	newsuc "github.com/newslens-cloud/newslens/internal/usecase/news"
	recommenduc "github.com/newslens-cloud/newslens/internal/usecase/recommend"
	"github.com/newslens-cloud/newslens/internal/version"
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

	logger.Info("Starting newslens API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()

	// Redis is optional: without it the service runs fully in-memory, with
	// no embedding cache and no restart recovery.
	var store db.Store
	if len(cfg.Database.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
	} else {
		logger.Info("No database configured, running in-memory")
	}

	// Register embedding metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()

	embedder := buildEmbedder(cfg.Embedding, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	idx := index.New()

	recSvc := recommenduc.New(idx, embedder, embedder, logger).
		WithTopKLimits(cfg.Recommend.DefaultTopK, cfg.Recommend.MaxTopK)

	// With a store attached, reload the corpus saved by previous runs.
	var dbPinger healthuc.DBPinger
	if store != nil {
		repo := articlesrepo.New(store)
		recSvc = recSvc.WithStore(repo)
		dbPinger = store

		saved, err := repo.LoadAll(ctx)
		if err != nil {
			logger.Warn("Failed to load saved articles", zap.Error(err))
		} else if len(saved) > 0 {
			if _, err := idx.Upsert(saved); err != nil {
				logger.Warn("Failed to restore saved articles", zap.Error(err))
			} else {
				metrics.IndexArticles.Set(float64(idx.Count()))
				logger.Info("Restored articles from database", zap.Int("count", idx.Count()))
			}
		}
	}

	var newsSvc chiTransport.NewsFetcher
	if cfg.News.APIKey != "" {
		client := newsapi.New(cfg.News.APIKey,
			newsapi.WithBaseURL(cfg.News.BaseURL),
			newsapi.WithTimeout(time.Duration(cfg.News.TimeoutSec)*time.Second),
		)
		newsSvc = newsuc.New(client, logger, cfg.News.DefaultTopic, cfg.News.DefaultPageSize)
	} else {
		logger.Info("No news API key configured, /api/news disabled")
	}

	healthSvc := healthuc.New(dbPinger, newEmbeddingHealthChecker(embedder), idx)

	server := chiTransport.NewServer(recSvc, newsSvc, healthSvc, logger).
		WithMaxBatchSize(cfg.Recommend.MaxBatchSize)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	if cfg.Static.Dir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.Static.Dir)))
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented
func buildEmbedder(
	embCfg config.EmbeddingConfig,
	store db.Store,
	logger *zap.Logger,
) *embeddinguc.InstrumentedEmbedder {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     embCfg.APIKey,
		BaseURL:    embCfg.BaseURL,
		Model:      embCfg.Model,
		Dimensions: embCfg.Dimensions,
		Provider:   embCfg.Provider,
		Logger:     logger,
	})

	// Cached
	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (logging + batch chunking)
	return embeddinguc.NewInstrumentedEmbedder(embedder, embCfg.Provider, embCfg.Model, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
