package main

import (
	"context" // context package is needed for the Redis ping

	"club_system/internal/api"      // Custom package for API handlers
	"club_system/internal/config"   // Custom package for configuration
	"club_system/internal/db"       // Custom package for the relational store
	"club_system/internal/events"   // Custom package for domain events
	"club_system/internal/utils"    // Custom package for the read-model cache
	"club_system/internal/workflow" // Custom package for the transfer and registration workflows

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logrus.StandardLogger()

	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database and make sure the schema is current
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	// Setup the read-model cache, Redis when configured
	cache, err := utils.NewCacheFromConfig(context.Background(), cfg)
	if err != nil {
		logrus.Fatalf("failed to set up cache: %v", err)
	}
	if cfg.RedisAddr != "" {
		logrus.WithField("addr", cfg.RedisAddr).Info("Using Redis read-model cache")
	} else {
		logrus.Warn("Using in-process read-model cache; changes made by cmd/cli show up after CACHE_TTL_SECONDS")
	}

	// Setup the event publisher, NATS when configured
	var publisher events.Publisher = events.NewLogPublisher(log)
	if cfg.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			logrus.Fatalf("failed to connect to NATS: %v", err)
		}
		defer nats.Close()
		publisher = nats
		logrus.WithField("url", cfg.NATSURL).Info("Publishing events to NATS")
	}

	engine := workflow.New(workflow.Options{
		DB:       gdb,
		Cache:    cache,
		Events:   publisher,
		Log:      log,
		CacheTTL: cfg.CacheTTL,
	})

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := api.NewRouter(engine, cfg.JWTSecret, log) // Gin router with every route wired

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	logrus.Info("Server running on " + cfg.AppPort) // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}
