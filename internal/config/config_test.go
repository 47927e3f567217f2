package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("CACHE_TTL_SECONDS", "")
	t.Setenv("DATA_DIR", "")

	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "127.0.0.1", cfg.DBHost)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL())
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_USER", "toko")
	t.Setenv("DB_PASSWORD", "rahasia")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "blangkis")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("IS_PROD", "true")
	t.Setenv("CACHE_TTL_SECONDS", "15")

	cfg := LoadConfig()
	assert.Equal(t, "toko:rahasia@tcp(db:3307)/blangkis?charset=utf8mb4&parseTime=true&loc=Local", cfg.DSN())
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.IsProd)
	assert.Equal(t, 15*time.Second, cfg.CacheTTL())
}

func TestLoadConfigIgnoresBadCacheTTL(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "sebentar")
	assert.Equal(t, 60*time.Second, LoadConfig().CacheTTL())
}
