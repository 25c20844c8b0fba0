// Package main provides the NAU assistant server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/nauhq/nau-assist-go/internal/buildinfo"
	"github.com/nauhq/nau-assist-go/internal/catalog"
	"github.com/nauhq/nau-assist-go/internal/chatapi"
	"github.com/nauhq/nau-assist-go/internal/config"
	"github.com/nauhq/nau-assist-go/internal/dialog"
	"github.com/nauhq/nau-assist-go/internal/history"
	"github.com/nauhq/nau-assist-go/internal/knowledge"
	"github.com/nauhq/nau-assist-go/internal/logger"
	"github.com/nauhq/nau-assist-go/internal/metrics"
	"github.com/nauhq/nau-assist-go/internal/sentry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.WithField("version", buildinfo.Version).Info("Starting NAU Assistant Server")

	// Initialize Sentry error tracking (optional)
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		Debug:       cfg.LogLevel == "debug",
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.Info("Sentry error tracking enabled")
	}

	// Create session history store
	var store history.Store
	switch cfg.HistoryBackend {
	case config.HistoryBackendSQLite:
		sqliteStore, err := history.NewSQLiteStore(cfg.SQLitePath())
		if err != nil {
			log.WithError(err).Fatal("Failed to open history database")
		}
		store = sqliteStore
		log.WithField("path", cfg.SQLitePath()).Info("SQLite history store connected")
	default:
		store = history.NewMemoryStore()
		log.Info("In-memory history store created")
	}
	defer func() { _ = store.Close() }()

	// Create Prometheus registry
	registry := prometheus.NewRegistry()

	// Register Go and process collectors
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	// Create metrics
	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Load the predefined answer catalog
	cat, err := catalog.New()
	if err != nil {
		log.WithError(err).Fatal("Failed to load answer catalog")
	}
	log.WithField("entries", cat.Len()).Info("Answer catalog loaded")

	// Create knowledge fallback service (optional - requires OpenAI API key)
	var knowledgeSvc knowledge.Service
	if cfg.HasKnowledgeProvider() {
		svc, err := knowledge.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAISearchModel, cfg.OpenAIFallbackModel, m, log)
		if err != nil {
			log.WithError(err).Warn("Failed to create knowledge service, fallback disabled")
		} else if svc != nil {
			knowledgeSvc = svc
			log.WithField("search_model", cfg.OpenAISearchModel).Info("Knowledge fallback service enabled")
		}
	} else {
		log.Info("OpenAI API key not configured, knowledge fallback disabled")
	}

	// Create dialogue orchestrator and API handler
	orchestrator := dialog.New(cat, store, knowledgeSvc, m, log, cfg.FallbackTimeout)
	apiHandler := chatapi.NewHandler(orchestrator, store, m, log)
	log.Info("Dialogue orchestrator created")

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(corsMiddleware(cfg.AllowedOrigins))
	router.Use(loggingMiddleware(log))

	// Setup routes
	setupRoutes(router, apiHandler, store, cat, knowledgeSvc, registry, cfg)

	// Create HTTP server. WriteTimeout leaves headroom for a slow
	// fallback call plus response serialization.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.FallbackTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// History pruning goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in history pruning goroutine")
			}
		}()
		pruneExpiredChats(ctx, store, cfg.HistoryTTL, m, log)
	}()

	// Active chats gauge updater goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in chat metrics goroutine")
			}
		}()
		updateChatMetrics(ctx, store, m, log)
	}()

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Cancel context to stop background goroutines
	cancel()

	// Wait for goroutines to finish (with timeout)
	goDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(goDone)
	}()

	select {
	case <-goDone:
		log.Info("All background goroutines stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for goroutines to stop")
	}

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown server gracefully
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Close knowledge service (if enabled)
	if knowledgeSvc != nil {
		if err := knowledgeSvc.Close(); err != nil {
			log.WithError(err).Error("Failed to close knowledge service")
		}
	}

	// Close history store
	if err := store.Close(); err != nil {
		log.WithError(err).Error("Failed to close history store")
	}

	// Flush pending Sentry events
	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}

	log.Info("Server stopped")
}
