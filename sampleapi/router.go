package sampleapi

import (
	"net/http"
	"strconv"
	"time"

	"logviewer/logger"
	"logviewer/synth"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lokitest_http_requests_total",
			Help: "Requests served by the sample API",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "lokitest_http_request_duration_seconds",
			Help: "Time taken to serve a sample API request",
		},
		[]string{"method", "route"},
	)
)

// NewRouter builds the gin engine with logging, recovery and metrics.
func NewRouter(gen *synth.Generator) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(), recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(synth.TimestampLayout),
		})
	})

	NewWeatherForecastController(gen).Register(r)
	return r
}

// requestLogger records one line and the metrics for every request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		logger.Info("HTTP request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"elapsed_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP())
	}
}

// recovery turns a handler panic into a logged 500 with a JSON body.
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Unhandled panic in request", "panic", rec, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			}
		}()
		c.Next()
	}
}
