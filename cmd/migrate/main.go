package main

import (
	"club_system/internal/config" // Custom import path (Config)
	"club_system/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus"
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}

	// Seed the system admin on an empty database
	if cfg.AdminPassword == "" {
		logrus.Warn("ADMIN_PASSWORD not set, skipping admin seed")
		return
	}
	if _, err := db.SeedAdmin(gdb, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		logrus.Fatalf("failed to seed admin: %v", err)
	}
}
