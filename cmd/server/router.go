package main

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"estimator/internal/config"
	"estimator/internal/handler"
	"estimator/internal/metrics"
	"estimator/internal/service"
)

func setupRouter(cfg *config.Config, estimateService *service.EstimateService, presets *service.Presets, m *metrics.Metrics) *gin.Engine {
	// Initialize handlers
	estimateHandler := handler.NewEstimateHandler(estimateService)
	optionsHandler := handler.NewOptionsHandler(presets)
	modelHandler := handler.NewModelHandler(estimateService)

	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger(), m.Middleware())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	if origins := splitList(cfg.Server.AllowedOrigins); len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = splitList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(cfg.Server.AllowedHeaders)
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		status := estimateService.ModelStatus()
		c.JSON(http.StatusOK, gin.H{
			"status":       "healthy",
			"service":      "price-estimator",
			"version":      Version,
			"build_time":   BuildTime,
			"git_commit":   GitCommit,
			"model_loaded": status.Loaded,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	router.GET("/metrics", gin.WrapH(m.Handler()))

	// API routes
	apiV1 := router.Group("/api/v1")
	apiV1.Use(handler.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	{
		// Form options
		apiV1.GET("/options", optionsHandler.Options)
		apiV1.GET("/presets", optionsHandler.ListPresets)
		apiV1.GET("/presets/:id", optionsHandler.GetPreset)

		// Estimates
		apiV1.POST("/estimates", estimateHandler.Create)
		apiV1.POST("/estimates/stream", estimateHandler.Stream) // Streaming estimate
		apiV1.GET("/estimates/recent", estimateHandler.Recent)
		apiV1.GET("/estimates/:id", estimateHandler.Get)
		apiV1.GET("/estimates/:id/similar", estimateHandler.Similar)
		apiV1.POST("/features/encode", estimateHandler.Encode)

		// Model provider
		apiV1.GET("/model", modelHandler.Status)
		apiV1.POST("/model/reload", modelHandler.Reload)
	}

	// Serve the form
	// This function is implemented in embed.go (production) or static_dev.go (development)
	setupStaticFiles(router, cfg.Server.WebDir)

	return router
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
