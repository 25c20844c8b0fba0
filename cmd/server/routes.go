// Package main provides the NAU assistant server entry point.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nauhq/nau-assist-go/internal/buildinfo"
	"github.com/nauhq/nau-assist-go/internal/catalog"
	"github.com/nauhq/nau-assist-go/internal/chatapi"
	"github.com/nauhq/nau-assist-go/internal/config"
	"github.com/nauhq/nau-assist-go/internal/history"
	"github.com/nauhq/nau-assist-go/internal/knowledge"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, apiHandler *chatapi.Handler, store history.Store, cat *catalog.Catalog, knowledgeSvc knowledge.Service, registry *prometheus.Registry, cfg *config.Config) {
	// Root endpoint - service identification
	rootHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "nau-assist",
			"version": buildinfo.Version,
		})
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Health check endpoints
	// Liveness Probe - checks if the application is alive (minimal check)
	// This should NEVER check dependencies - only that the process is running
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness Probe - checks if the application is ready to serve traffic
	readyHandler := func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		chatCount, _ := store.CountChats(c.Request.Context())

		c.JSON(http.StatusOK, gin.H{
			"status":           "ready",
			"history_backend":  cfg.HistoryBackend,
			"catalog_entries":  cat.Len(),
			"active_chats":     chatCount,
			"fallback_enabled": knowledgeSvc != nil && knowledgeSvc.IsEnabled(),
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// Chat API endpoints
	apiHandler.RegisterRoutes(router.Group("/api"))

	// Prometheus metrics endpoint (Basic Auth when a password is set)
	router.GET("/metrics",
		metricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}
