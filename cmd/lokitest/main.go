// Command lokitest serves the sample weather API and ships its own logs to
// Loki, the console and a daily rolling file.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"logviewer/lifecycle"
	"logviewer/logger"
	"logviewer/loki"
	"logviewer/sampleapi"
	"logviewer/synth"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := "config.json"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Fatal("Application terminated unexpectedly", "panic", r)
		}
	}()

	if err := run(LoadConfig(configPath)); err != nil {
		logger.Fatal("Application terminated unexpectedly", "err", err)
	}
}

func run(cfg *Config) error {
	level, ok := logger.ParseLevel(cfg.LogLevel)
	if !ok {
		level, _ = logger.ParseLevel("debug")
	}

	sink, err := loki.NewSink(loki.Options{
		URL: cfg.LokiURL,
		Labels: map[string]string{
			"app":         "LokiTest",
			"environment": cfg.Environment,
		},
		Level: level,
	})
	if err != nil {
		return fmt.Errorf("init loki sink: %w", err)
	}
	// Runs after closeLog so the final entries are already queued.
	defer sink.Close()

	closeLog, err := logger.Init(logger.Options{
		Level:       cfg.LogLevel,
		Application: "LokiTest",
		Environment: cfg.Environment,
		FileDir:     cfg.LogDir,
		FileName:    "lokitest-api",
		Cores:       []zapcore.Core{sink.Core()},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	logger.Info(fmt.Sprintf("Starting LokiTest API - Logging directly to Loki at %s", cfg.LokiURL))

	gin.SetMode(gin.ReleaseMode)
	router := sampleapi.NewRouter(synth.NewGenerator())

	sup := lifecycle.New()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	sup.ServeOptional("metrics", &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 2 * time.Second,
	})

	sup.Serve("api", &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := sup.Wait(ctx)
	logger.Info("LokiTest API stopping...")
	if err := sup.Shutdown(10 * time.Second); err != nil {
		logger.Warn("Shutdown incomplete", "err", err)
	}
	return runErr
}
