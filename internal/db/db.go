package db

import (
	"fmt"
	"strings"

	"club_system/internal/config" // Application configuration

	"gorm.io/driver/mysql"  // MySQL driver for GORM
	"gorm.io/driver/sqlite" // SQLite driver for GORM
	"gorm.io/gorm"          // GORM ORM library
	"gorm.io/gorm/logger"
)

// Open connects to the configured relational store
func Open(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(cfg.DBDriver) {
	case "mysql":
		dialector = mysql.Open(cfg.MySQLDSN())
	case "sqlite", "":
		dialector = sqlite.Open(SQLiteDSN(cfg.DBPath))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return gorm.Open(dialector, gormConfig(cfg.IsProd))
}

// OpenSQLite opens a SQLite database from a raw DSN, used for in-memory stores
func OpenSQLite(dsn string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), gormConfig(true))
}

// SQLiteDSN enables foreign keys and a busy timeout on a SQLite file path
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func gormConfig(quiet bool) *gorm.Config {
	cfg := &gorm.Config{TranslateError: true} // Map driver errors to gorm.ErrDuplicatedKey and friends
	if quiet {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	return cfg
}
