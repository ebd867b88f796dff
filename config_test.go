package main

import (
	"os"
	"path/filepath"
	"testing"

	"logviewer/gateway"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "LOKI_URL", "API_URL", "STATIC_DIR", "INDEX_FILE", "METRICS_PORT",
		"MANAGEMENT_PORT", "LOG_LEVEL", "REDIS_ADDR", "REDIS_PASSWORD", "RATE_LIMIT",
		"RATE_BURST", "GEOIP_DB", "WEBHOOK_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, "http://localhost:3100", cfg.LokiURL)
	assert.Equal(t, "http://localhost:5000", cfg.APIURL)
	assert.Equal(t, ".", cfg.StaticDir)
	assert.Equal(t, "index.html", cfg.IndexFile)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, 9091, cfg.ManagementPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
	assert.Zero(t, cfg.RateLimit)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"port":4000,"loki_url":"http://loki:3100","rate_limit":5}`), 0o644))
	t.Setenv("LOKI_URL", "http://other:3100")
	t.Setenv("RATE_BURST", "20")

	cfg := LoadConfig(path)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "http://other:3100", cfg.LokiURL)
	assert.Equal(t, 5.0, cfg.RateLimit)
	assert.Equal(t, 20, cfg.RateBurst)
}

func TestLoadConfigIgnoresBadInput(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))
	t.Setenv("PORT", "abc")
	t.Setenv("METRICS_PORT", "-1")

	cfg := LoadConfig(path)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, 9090, cfg.MetricsPort)
}

func TestLoadConfigFallsBackOnInvalidURLs(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOKI_URL", "localhost:3100")
	t.Setenv("API_URL", "ftp://api:5000")

	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, "http://localhost:3100", cfg.LokiURL)
	assert.Equal(t, "http://localhost:5000", cfg.APIURL)

	t.Setenv("LOKI_URL", "https://loki.internal:3100/")
	assert.Equal(t, "https://loki.internal:3100/", LoadConfig("").LokiURL)
}

func TestLoadedConfigAlwaysBuildsGateway(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOKI_URL", "not a url")
	t.Setenv("API_URL", "localhost:5000")

	cfg := LoadConfig("")
	_, err := gateway.New(gateway.Options{LokiURL: cfg.LokiURL, APIURL: cfg.APIURL, StaticDir: t.TempDir()})
	assert.NoError(t, err)
}
