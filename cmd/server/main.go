package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/trafficfuzz/route-advisor/internal/advisor"
	"github.com/trafficfuzz/route-advisor/internal/cache"
	"github.com/trafficfuzz/route-advisor/internal/config"
	"github.com/trafficfuzz/route-advisor/internal/errors"
	"github.com/trafficfuzz/route-advisor/internal/monitoring"
	"github.com/trafficfuzz/route-advisor/internal/ratelimit"
	"github.com/trafficfuzz/route-advisor/internal/types"
)

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	configPath := getEnvOrDefault("CONFIG_PATH", "./config.yaml")
	port := getEnvOrDefault("PORT", "8080")

	// A configuration error is fatal: the pipeline must never run against
	// an invalid or partially valid configuration.
	store, err := config.NewStore(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}

	snap := store.Snapshot()
	slog.Info("Configuration loaded",
		"path", configPath,
		"groups", len(snap.Groups),
		"output_terms", len(snap.OutputTerms),
	)

	r := setupRouter(store)

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// setupRouter wires the full middleware chain and routes. Split out so
// handler tests can build the same router the binary runs.
func setupRouter(store *config.Store) *gin.Engine {
	adv := advisor.New(store)

	r := gin.New()

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))

	// Add error handling middleware
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	limiter := ratelimit.NewRateLimiter(ratelimit.DefaultConfig())
	r.Use(limiter.IPRateLimitMiddleware(appMetrics))

	// Advisory responses are pure functions of body + config snapshot, so
	// a short TTL cache is safe; reloads clear it below.
	appCache := cache.NewCache(15 * time.Minute)
	r.Use(appCache.Middleware(appMetrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   "1.0.0",
			"metrics":   appMetrics.GetStats(),
		})
	})

	r.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, appMetrics.GetStats())
	})

	r.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, appCache.Stats())
	})

	r.GET("/ratelimit/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, limiter.GetStats())
	})

	r.POST("/advise", func(c *gin.Context) {
		start := time.Now()

		var req types.AdviseRequest
		if err := c.BindJSON(&req); err != nil {
			appErr := errors.NewValidationError("invalid request body", err.Error())
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		if req.Timestamp.IsZero() {
			req.Timestamp = time.Now()
		}

		decisions, err := adv.Advise(advisor.Request{
			Routes:    req.Routes,
			Signals:   req.Signals,
			Timestamp: req.Timestamp,
		})
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		advice := make([]types.RouteAdvice, len(decisions))
		for i, d := range decisions {
			advice[i] = types.RouteAdvice{
				RouteID:         d.RouteID,
				Score:           d.Score,
				Rank:            d.Rank,
				TermActivations: d.Activations,
			}
		}

		appMetrics.RecordAdvisory(len(advice))
		cacheHit := c.GetBool("cache_hit")
		appLogger.AdvisoryLogger(len(advice), advice[0].RouteID, advice[0].Score, time.Since(start), cacheHit)

		c.JSON(http.StatusOK, gin.H{
			"advice":    advice,
			"timestamp": req.Timestamp.Format(time.RFC3339),
		})
	})

	r.POST("/config/reload", func(c *gin.Context) {
		snap, err := store.Reload()
		if err != nil {
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}

		// Cached responses were computed against the old snapshot.
		appCache.Clear()
		appMetrics.IncrementConfigReload()

		slog.Info("Configuration reloaded", "groups", len(snap.Groups))
		c.JSON(http.StatusOK, gin.H{
			"message":      "configuration reloaded",
			"groups":       len(snap.Groups),
			"output_terms": len(snap.OutputTerms),
		})
	})

	return r
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
