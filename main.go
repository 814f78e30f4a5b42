package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"massbank-harvester/app"
	"massbank-harvester/config"
)

var harvestRunsCounter *prometheus.CounterVec

func init() {
	harvestRunsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "harvest_runs_total",
			Help: "Total number of harvest runs by trigger and result.",
		},
		[]string{"trigger", "result"},
	)
	prometheus.MustRegister(harvestRunsCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	a, err := app.New(context.Background(), cfg, logging, prometheus.DefaultRegisterer)
	if err != nil {
		logging.Fatal("Setup failed", zap.Error(err))
	}
	defer a.Close()

	if err := a.Migrate(); err != nil {
		logging.Fatal("Migration failed", zap.Error(err))
	}

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Setup Routes
	setupSourceRoutes(router, a.Harvest, &countingStarter{a}, logging)
	setupJobRoutes(router, a.Harvest, logging)
	setupPackageRoutes(router, a.Catalog, logging)
	setupChemistryRoutes(router)

	// Setup Cron
	cronScheduler := cron.New()
	_, err = cronScheduler.AddFunc(cfg.CronSchedule, func() {
		logging.Info("Running scheduled harvest...")
		imported, err := a.RunAll(context.Background())
		if err != nil {
			logging.Error("Cron job failed", zap.Error(err))
			harvestRunsCounter.WithLabelValues("cron", "error").Inc()
			return
		}
		logging.Info("Cron job completed", zap.Int("imported", imported))
		harvestRunsCounter.WithLabelValues("cron", "ok").Inc()
	})
	if err != nil {
		logging.Fatal("Invalid cron schedule", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
	}
	cronScheduler.Start()
	defer cronScheduler.Stop()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// countingStarter zählt manuell ausgelöste Läufe.
type countingStarter struct {
	app *app.App
}

func (s *countingStarter) StartSource(sourceID string) error {
	err := s.app.StartSource(sourceID)
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	harvestRunsCounter.WithLabelValues("api", result).Inc()
	return err
}
