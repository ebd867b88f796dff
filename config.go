package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"logviewer/logger"
)

type Config struct {
	Port           int     `json:"port"`
	LokiURL        string  `json:"loki_url"`
	APIURL         string  `json:"api_url"`
	StaticDir      string  `json:"static_dir"`
	IndexFile      string  `json:"index_file"`
	MetricsPort    int     `json:"metrics_port"`
	ManagementPort int     `json:"management_port"`
	LogLevel       string  `json:"log_level"`
	RedisAddr      string  `json:"redis_addr"`
	RedisPassword  string  `json:"redis_password"`
	RateLimit      float64 `json:"rate_limit"`
	RateBurst      int     `json:"rate_burst"`
	GeoIPDBPath    string  `json:"geoip_db"`
	WebhookURL     string  `json:"webhook_url"`
}

// LoadConfig reads an optional JSON file, applies environment overrides and
// fills defaults. A missing or malformed file is ignored.
func LoadConfig(path string) *Config {
	var cfg Config

	if file, err := os.Open(path); err == nil {
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			cfg = Config{}
		}
		file.Close()
	}

	if val := os.Getenv("PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.Port)
	}
	if val := os.Getenv("LOKI_URL"); val != "" {
		cfg.LokiURL = val
	}
	if val := os.Getenv("API_URL"); val != "" {
		cfg.APIURL = val
	}
	if val := os.Getenv("STATIC_DIR"); val != "" {
		cfg.StaticDir = val
	}
	if val := os.Getenv("INDEX_FILE"); val != "" {
		cfg.IndexFile = val
	}
	if val := os.Getenv("METRICS_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.MetricsPort)
	}
	if val := os.Getenv("MANAGEMENT_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.ManagementPort)
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.RedisAddr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.RedisPassword = val
	}
	if val := os.Getenv("RATE_LIMIT"); val != "" {
		fmt.Sscanf(val, "%f", &cfg.RateLimit)
	}
	if val := os.Getenv("RATE_BURST"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.RateBurst)
	}
	if val := os.Getenv("GEOIP_DB"); val != "" {
		cfg.GeoIPDBPath = val
	}
	if val := os.Getenv("WEBHOOK_URL"); val != "" {
		cfg.WebhookURL = val
	}

	if cfg.Port <= 0 {
		cfg.Port = 3001
	}
	cfg.LokiURL = absoluteURL("LOKI_URL", cfg.LokiURL, "http://localhost:3100")
	cfg.APIURL = absoluteURL("API_URL", cfg.APIURL, "http://localhost:5000")
	if cfg.StaticDir == "" {
		cfg.StaticDir = "."
	}
	if cfg.IndexFile == "" {
		cfg.IndexFile = "index.html"
	}
	if cfg.MetricsPort <= 0 {
		cfg.MetricsPort = 9090
	}
	if cfg.ManagementPort <= 0 {
		cfg.ManagementPort = 9091
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 1
	}

	return &cfg
}

// absoluteURL returns val when it is an absolute http(s) URL, def otherwise.
func absoluteURL(name, val, def string) string {
	if val == "" {
		return def
	}
	u, err := url.Parse(val)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		logger.Warn("Ignoring invalid URL setting, using default", "setting", name, "value", val, "default", def)
		return def
	}
	return val
}
