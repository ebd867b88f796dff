package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"logviewer/logger"
)

type Config struct {
	Port        int    `json:"port"`
	LokiURL     string `json:"loki_url"`
	Environment string `json:"environment"`
	LogDir      string `json:"log_dir"`
	LogLevel    string `json:"log_level"`
	MetricsPort int    `json:"metrics_port"`
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
	if val := os.Getenv("APP_ENV"); val != "" {
		cfg.Environment = val
	}
	if val := os.Getenv("LOG_DIR"); val != "" {
		cfg.LogDir = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("METRICS_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.MetricsPort)
	}

	if cfg.Port <= 0 {
		cfg.Port = 5000
	}
	if u, err := url.Parse(cfg.LokiURL); cfg.LokiURL != "" && (err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "") {
		logger.Warn("Ignoring invalid LOKI_URL, using default", "value", cfg.LokiURL)
		cfg.LokiURL = ""
	}
	if cfg.LokiURL == "" {
		cfg.LokiURL = "http://localhost:3100"
	}
	if cfg.Environment == "" {
		cfg.Environment = "Production"
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "logs"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.MetricsPort <= 0 {
		cfg.MetricsPort = 9092
	}

	return &cfg
}
