package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"estimator/internal/config"
	"estimator/internal/metrics"
	"estimator/internal/provider"
	"estimator/internal/repository"
	"estimator/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer zap.L().Sync() //nolint:errcheck
	log := zap.L()

	log.Info("Real-estate price estimator",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	gin.SetMode(cfg.Server.GinMode)

	m := metrics.New()

	// Model provider, loaded once on first use
	models := provider.NewHolder(provider.NewLoader(cfg.Model), m.ObserveModelLoad)
	log.Info("🔧 Model provider configured",
		zap.String("kind", cfg.Model.Kind),
		zap.String("url", cfg.Model.URL),
		zap.String("path", cfg.Model.Path),
	)
	if cfg.Model.Preload {
		go func() {
			if _, err := models.Get(context.Background()); err != nil {
				log.Warn("⚠️  Model preload failed, the next estimate will retry", zap.Error(err))
			}
		}()
	}

	// Prediction log
	var store service.EstimateStore
	if cfg.PostgreSQL.Enabled {
		if cfg.PostgreSQL.AutoMigrate {
			if err := repository.RunMigrations(cfg.GetPostgreSQLURL()); err != nil {
				log.Fatal("Failed to run migrations", zap.Error(err))
			}
			log.Info("✅ Database migrations applied")
		}

		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer repo.Close()
		store = repo

		log.Info("✅ Connected to PostgreSQL database")
	} else {
		log.Warn("⚠️  Prediction log is disabled",
			zap.String("hint", "set DATABASE_URL to store estimates and enable similar-estimate search"))
	}

	// Initialize services
	estimateService := service.NewEstimateService(models, store, m, cfg.Estimate)
	presets, err := service.LoadPresets()
	if err != nil {
		log.Fatal("Failed to load presets", zap.Error(err))
	}

	log.Info("✅ Services initialized")

	router := setupRouter(cfg, estimateService, presets, m)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	log.Info("🚀 Starting server", zap.String("addr", addr))
	log.Info("🌐 Web UI", zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.Server.Port)))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	estimateService.Wait()

	log.Info("✅ Server stopped")
}
