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
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/unisearch/internal/config"
	"github.com/kailas-cloud/unisearch/internal/domain/schema"
	"github.com/kailas-cloud/unisearch/internal/domain/search/request"
	"github.com/kailas-cloud/unisearch/internal/engine/elastic"
	"github.com/kailas-cloud/unisearch/internal/grouper"
	logpkg "github.com/kailas-cloud/unisearch/internal/logger"
	"github.com/kailas-cloud/unisearch/internal/metrics"
	"github.com/kailas-cloud/unisearch/internal/presenter"
	"github.com/kailas-cloud/unisearch/internal/registry"
	chiTransport "github.com/kailas-cloud/unisearch/internal/transport/chi"
	bestbetsuc "github.com/kailas-cloud/unisearch/internal/usecase/bestbets"
	healthuc "github.com/kailas-cloud/unisearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/unisearch/internal/usecase/search"
	"github.com/kailas-cloud/unisearch/internal/version"
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

	logger.Info("Starting unisearch API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("engine_url", cfg.Engine.BaseURL),
		zap.Strings("content_indices", cfg.Indices.Content),
	)

	eng, err := elastic.NewClient(elastic.Config{
		BaseURL: cfg.Engine.BaseURL,
		Timeout: time.Duration(cfg.Engine.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Failed to create engine client", zap.Error(err))
	}

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()

	sch, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		logger.Fatal("Failed to load document schema", zap.Error(err))
	}

	// Registries expand slugs into display documents at presentation time.
	registries := make(map[string]presenter.RegistryLookup, len(cfg.Registry.Sources))
	for name, src := range cfg.Registry.Sources {
		registries[name] = registry.New(registry.Config{
			Name:   name,
			Index:  src.Index,
			Format: src.Format,
			Fields: src.Fields,
			TTL:    time.Duration(cfg.Registry.RefreshSec) * time.Second,
			Logger: logger,
		}, eng)
	}

	allIndices := append([]string{}, cfg.Indices.Content...)
	if cfg.Indices.Fallback != "" {
		allIndices = append(allIndices, cfg.Indices.Fallback)
	}

	pres := presenter.New(sch, registries, allIndices)

	var grp searchuc.Grouper
	if cfg.Search.GroupField != "" {
		grp = grouper.New(cfg.Search.GroupField, pres)
	}

	bets := bestbetsuc.New(eng, cfg.Indices.Metasearch, logger)
	builder := searchuc.NewBuilder(cfg.Indices.Content, cfg.Indices.Fallback)
	suggester := searchuc.NewEngineSuggester(eng, cfg.Indices.Content)

	searchSvc := searchuc.New(eng, builder, bets, suggester, grp, pres, sch, logger)
	healthSvc := healthuc.NewService(eng)

	parserOpts := request.ParserOptions{
		Schema:              sch,
		FacetFields:         cfg.Search.FacetFields,
		SortFields:          cfg.Search.SortFields,
		DefaultReturnFields: cfg.Search.DefaultReturnFields,
		MaxCount:            cfg.Search.MaxCount,
	}

	server := chiTransport.NewServer(searchSvc, healthSvc, parserOpts, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

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
			if requestID == "" {
				requestID = uuid.NewString()
			}

			// Set X-Request-ID in response header
			w.Header().Set("X-Request-ID", requestID)

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
