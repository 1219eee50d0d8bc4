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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fusedex/internal/cache"
	"github.com/kailas-cloud/fusedex/internal/config"
	dbRedis "github.com/kailas-cloud/fusedex/internal/db/redis"
	"github.com/kailas-cloud/fusedex/internal/domain"
	logpkg "github.com/kailas-cloud/fusedex/internal/logger"
	"github.com/kailas-cloud/fusedex/internal/metrics"
	"github.com/kailas-cloud/fusedex/internal/repository/corpus"
	"github.com/kailas-cloud/fusedex/internal/repository/embcache"
	searchrepo "github.com/kailas-cloud/fusedex/internal/repository/search"
	"github.com/kailas-cloud/fusedex/internal/retriever"
	chiTransport "github.com/kailas-cloud/fusedex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/fusedex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/fusedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/fusedex/internal/usecase/search"
	"github.com/kailas-cloud/fusedex/internal/version"
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

	logger.Info("Starting fusedex API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("query_domain", cfg.Search.QueryDomain),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register domain metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Cache cascades: fused results (short TTL) and embeddings (long/no TTL)
	// share the networked tier but keep separate in-process LRUs.
	writeTimeout := time.Duration(cfg.Cache.WriteTimeoutMilli) * time.Millisecond
	resultCascade := newCascade("results", cfg, cache.Options{
		BackfillTTL:  time.Duration(cfg.Cache.ResultTTLSec) * time.Second,
		WriteTimeout: writeTimeout,
	}, store, logger)
	embeddingCascade := newCascade("embeddings", cfg, cache.Options{
		BackfillTTL:  time.Duration(cfg.Cache.EmbeddingTTLSec) * time.Second,
		WriteTimeout: writeTimeout,
	}, store, logger)

	// Embedding resolver: provider behind the embeddings cascade.
	models := make(map[domain.EmbeddingDomain]openaiEmb.ModelConfig, len(cfg.Embedding.Models))
	dims := make(map[domain.EmbeddingDomain]int, len(cfg.Embedding.Models))
	for name, m := range cfg.Embedding.Models {
		d := domain.EmbeddingDomain(name)
		models[d] = openaiEmb.ModelConfig{Model: m.Model, Dimensions: m.Dimensions}
		dims[d] = m.Dimensions
	}
	provider := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:   cfg.Embedding.APIKey,
		BaseURL:  cfg.Embedding.BaseURL,
		Models:   models,
		Provider: cfg.Embedding.Provider,
		Logger:   logger,
	})
	resolver := embcache.New(
		provider, embeddingCascade,
		time.Duration(cfg.Cache.EmbeddingTTLSec)*time.Second,
		dims, logger,
	)
	logger.Info("Embedding resolver created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.Int("domains", len(models)),
	)

	// Retrieval backends and thin retriever wrappers.
	repo := searchrepo.New(store, cfg.Index.KeyPrefix)
	lexical := retriever.NewLexical(repo)
	vector := retriever.NewVector(repo, domain.EmbeddingDomain(cfg.Search.QueryDomain))

	// Fusion orchestrator.
	generation := corpus.New(store, cfg.Index.KeyPrefix, logger)
	searchSvc := searchuc.New(lexical, vector, resolver, resultCascade, generation, searchuc.Config{
		RRFK:             cfg.Search.RRFK,
		WeightLexical:    cfg.Search.WeightLexical,
		WeightVector:     cfg.Search.WeightVector,
		TopK:             cfg.Search.TopK,
		MaxFusionDepth:   cfg.Search.MaxFusionDepth,
		QueryDomain:      domain.EmbeddingDomain(cfg.Search.QueryDomain),
		EmbeddingTimeout: time.Duration(cfg.Search.EmbeddingTimeoutMs) * time.Millisecond,
		LexicalTimeout:   time.Duration(cfg.Search.LexicalTimeoutMs) * time.Millisecond,
		VectorTimeout:    time.Duration(cfg.Search.VectorTimeoutMs) * time.Millisecond,
		ResultTTL:        time.Duration(cfg.Cache.ResultTTLSec) * time.Second,
	}, logger)

	healthSvc := healthuc.New(store, provider)

	server := chiTransport.NewServer(searchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

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
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	// Let in-flight cache promotions settle before the store closes.
	resultCascade.Wait()
	embeddingCascade.Wait()

	logger.Info("Server stopped")
}

// newCascade builds a two-tier cascade: in-process LRU over the shared store.
func newCascade(
	name string, cfg config.Config, opts cache.Options,
	store *dbRedis.Store, logger *zap.Logger,
) *cache.Cascade {
	memory, err := cache.NewMemory(cfg.Cache.MemoryCapacity)
	if err != nil {
		logger.Fatal("Failed to create memory cache tier", zap.Error(err))
	}
	tiers := []cache.Tier{memory, cache.NewRedis(store)}
	return cache.NewCascade(name, tiers, opts, logger)
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

// jsonRecoverer converts handler panics into JSON 500s.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Handler panic", zap.Any("panic", rec), zap.String("path", r.URL.Path))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
