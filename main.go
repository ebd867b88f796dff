package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"logviewer/filter"
	"logviewer/gateway"
	"logviewer/lifecycle"
	"logviewer/logger"
	"logviewer/manager"
	"logviewer/notifier"
	"logviewer/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := "config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Fatal("LogViewer crashed", "panic", r)
		}
	}()

	if err := run(LoadConfig(configPath)); err != nil {
		logger.Fatal("LogViewer terminated unexpectedly", "err", err)
	}
}

func run(cfg *Config) error {
	closeLog, err := logger.Init(logger.Options{
		Level:       cfg.LogLevel,
		Application: "LogViewer",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	// Counters live in Redis when reachable, in memory otherwise.
	var activeStore store.Storer = store.NewLocalStore()
	if cfg.RedisAddr != "" {
		rs := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rs.Ping(ctx)
		cancel()
		if err != nil {
			logger.Warn("Redis unreachable, using in-memory counters", "addr", cfg.RedisAddr, "err", err)
			rs.Close()
		} else {
			logger.Info("Distributed counters initialized (Redis)", "addr", cfg.RedisAddr)
			activeStore = rs
			defer rs.Close()
		}
	} else {
		logger.Info("In-memory counters initialized")
	}

	limiter := filter.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
	defer limiter.Stop()
	if limiter.Enabled() {
		logger.Info("Per-client rate limiting enabled", "rate", cfg.RateLimit, "burst", cfg.RateBurst)
	}

	geo := filter.NewGeoLocator(cfg.GeoIPDBPath)
	defer geo.Close()

	alerts := notifier.New(cfg.WebhookURL)
	defer alerts.Wait()

	gw, err := gateway.New(gateway.Options{
		LokiURL:   cfg.LokiURL,
		APIURL:    cfg.APIURL,
		StaticDir: cfg.StaticDir,
		IndexFile: cfg.IndexFile,
		Store:     activeStore,
		Limiter:   limiter,
		Geo:       geo,
		Notifier:  alerts,
	})
	if err != nil {
		return fmt.Errorf("init gateway: %w", err)
	}

	sup := lifecycle.New()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	sup.ServeOptional("metrics", &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 2 * time.Second,
	})

	mgmtMux := http.NewServeMux()
	manager.NewManagementAPI(activeStore, map[string]string{
		"loki": cfg.LokiURL,
		"api":  cfg.APIURL,
	}).Register(mgmtMux)
	sup.ServeOptional("management", &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ManagementPort),
		Handler:           mgmtMux,
		ReadHeaderTimeout: 2 * time.Second,
	})

	// No WriteTimeout: proxied exchanges are bounded by the upstream only.
	sup.Serve("gateway", &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           gw,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	})

	logger.Info("Log Viewer server running",
		"url", fmt.Sprintf("http://localhost:%d", cfg.Port),
		"loki", cfg.LokiURL,
		"api", cfg.APIURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := sup.Wait(ctx)
	logger.Info("LogViewer stopping...")
	if err := sup.Shutdown(10 * time.Second); err != nil {
		logger.Warn("Shutdown incomplete", "err", err)
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("All servers stopped gracefully")
	return nil
}
