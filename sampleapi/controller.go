// Package sampleapi is the LokiTest demo API: it fabricates weather data and
// log records and writes its own activity to the shared logger.
package sampleapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"logviewer/logger"
	"logviewer/synth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const testLogCount = 15

var errTestException = errors.New("This is a test exception for logging purposes")

// WeatherForecastController serves the /WeatherForecast routes.
type WeatherForecastController struct {
	gen *synth.Generator
	log *zap.SugaredLogger

	// sleep waits for d or until ctx is done; tests replace it.
	sleep func(done <-chan struct{}, d time.Duration)
}

func NewWeatherForecastController(gen *synth.Generator) *WeatherForecastController {
	return &WeatherForecastController{
		gen:   gen,
		log:   logger.With("SourceContext", "WeatherForecastController"),
		sleep: sleepOrDone,
	}
}

func (wc *WeatherForecastController) Register(r gin.IRouter) {
	g := r.Group("/WeatherForecast")
	g.GET("", wc.getForecast)
	g.POST("/test-logs", wc.generateTestLogs)
	g.GET("/error-test", wc.errorTest)
	g.POST("/performance-test", wc.performanceTest)
	g.GET("/logs", wc.getLogs)
}

func (wc *WeatherForecastController) getForecast(c *gin.Context) {
	wc.log.Infow("Weather forecast requested")
	forecasts := wc.gen.Forecast()
	wc.log.Infow(fmt.Sprintf("Generated %d weather forecasts", len(forecasts)), "Count", len(forecasts))
	c.JSON(http.StatusOK, forecasts)
}

func (wc *WeatherForecastController) generateTestLogs(c *gin.Context) {
	l := wc.log
	l.Infow("Starting test log generation")

	l.Logw(logger.TraceLevel, "This is a trace log message")
	l.Debugw("This is a debug log message with data", "Data", map[string]any{"UserId": 123, "Action": "Test"})
	l.Infow("This is an information log message")
	l.Warnw("This is a warning log message")
	l.Errorw("This is an error log message")
	l.Logw(logger.CriticalLevel, "This is a critical log message")

	for i := 1; i <= 10; i++ {
		status := "Success"
		if i%3 == 0 {
			status = "Error"
		}
		l.Infow(fmt.Sprintf("Processing item %d of %d with status %s", i, 10, status),
			"ItemNumber", i, "TotalItems", 10, "Status", status)
		if i%3 == 0 {
			msg := fmt.Sprintf("Simulated error for item %d", i)
			l.Errorw(fmt.Sprintf("Error processing item %d: %s", i, msg), "ItemNumber", i, "ErrorMessage", msg)
		}
	}

	l.Infow("Test log generation completed")
	c.JSON(http.StatusOK, gin.H{"message": "Test logs generated successfully", "count": testLogCount})
}

func (wc *WeatherForecastController) errorTest(c *gin.Context) {
	wc.log.Warnw("Error test endpoint called")

	if err := failingOperation(); err != nil {
		wc.log.Errorw("An error occurred in the error test endpoint", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Test error generated", "message": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func failingOperation() error {
	return errTestException
}

func (wc *WeatherForecastController) performanceTest(c *gin.Context) {
	wc.log.Infow("Starting performance test")

	start := time.Now()
	delay := time.Duration(100+wc.gen.IntN(900)) * time.Millisecond
	wc.sleep(c.Request.Context().Done(), delay)
	elapsed := time.Since(start).Milliseconds()

	wc.log.Infow(fmt.Sprintf("Performance test completed in %dms", elapsed), "ElapsedMs", elapsed)
	c.JSON(http.StatusOK, gin.H{"message": "Performance test completed", "elapsedMs": elapsed})
}

func (wc *WeatherForecastController) getLogs(c *gin.Context) {
	q := synth.Query{
		Level:  c.Query("level"),
		Search: c.Query("search"),
		Limit:  synth.ParseLimit(c.Query("limit")),
	}
	wc.log.Infow(fmt.Sprintf("Logs endpoint called with level=%s, search=%s, limit=%d", q.Level, q.Search, q.Limit),
		"Level", q.Level, "Search", q.Search, "Limit", q.Limit)

	logs := wc.gen.Logs(q)
	c.JSON(http.StatusOK, gin.H{
		"message": "Real logs retrieved successfully",
		"count":   len(logs),
		"logs":    logs,
	})
}

func sleepOrDone(done <-chan struct{}, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-done:
	}
}
