package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "DB_PATH", "CACHE_TTL_SECONDS", "ADMIN_USERNAME", "IS_PROD"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "club.db", cfg.DBPath)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.False(t, cfg.IsProd)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "club")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "clubs")
	t.Setenv("CACHE_TTL_SECONDS", "15")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("IS_PROD", "true")

	cfg := LoadConfig()
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "club:pw@tcp(db:3306)/clubs?parseTime=true", cfg.MySQLDSN())
	assert.Equal(t, 15*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.IsProd)
}
