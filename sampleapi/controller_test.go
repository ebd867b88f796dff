package sampleapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"logviewer/logger"
	"logviewer/synth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type logsResponse struct {
	Message string            `json:"message"`
	Count   int               `json:"count"`
	Logs    []json.RawMessage `json:"logs"`
}

type logLine struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Source    string `json:"source"`
	Raw       string `json:"raw"`
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	obs, logs := observer.New(logger.TraceLevel)
	closeFn, err := logger.Init(logger.Options{Cores: []zapcore.Core{obs}})
	require.NoError(t, err)
	t.Cleanup(closeFn)
	return logs
}

func TestForecastEndpoint(t *testing.T) {
	r := NewRouter(synth.NewGenerator())
	rec := serve(t, r, http.MethodGet, "/WeatherForecast")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []synth.Forecast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 5)
	for _, f := range got {
		assert.GreaterOrEqual(t, f.TemperatureC, -20)
		assert.Less(t, f.TemperatureC, 55)
		assert.NotEmpty(t, f.Summary)
		_, err := time.Parse(time.DateOnly, f.Date)
		assert.NoError(t, err)
	}
}

func TestLogsEndpointLevelFilter(t *testing.T) {
	r := NewRouter(synth.NewGenerator())
	rec := serve(t, r, http.MethodGet, "/WeatherForecast/logs?level=error&limit=100")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp logsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Real logs retrieved successfully", resp.Message)
	assert.LessOrEqual(t, resp.Count, 100)
	assert.Len(t, resp.Logs, resp.Count)

	var prev string
	for i, raw := range resp.Logs {
		var l logLine
		require.NoError(t, json.Unmarshal(raw, &l))
		assert.Equal(t, "error", l.Level)
		assert.Equal(t, "["+l.Timestamp+"] [ERROR] ["+l.Source+"] "+l.Message, l.Raw)
		if i > 0 {
			assert.GreaterOrEqual(t, prev, l.Timestamp)
		}
		prev = l.Timestamp
	}
}

func TestLogsEndpointSearchIsCaseInsensitive(t *testing.T) {
	r := NewRouter(synth.NewGenerator())
	rec := serve(t, r, http.MethodGet, "/WeatherForecast/logs?search=CACHE&limit=200")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp logsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, raw := range resp.Logs {
		var l logLine
		require.NoError(t, json.Unmarshal(raw, &l))
		assert.Contains(t, strings.ToLower(l.Message), "cache")
	}
}

func TestLogsEndpointLimits(t *testing.T) {
	r := NewRouter(synth.NewGenerator())

	for _, target := range []string{
		"/WeatherForecast/logs?limit=0",
		"/WeatherForecast/logs?limit=-3",
	} {
		rec := serve(t, r, http.MethodGet, target)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Real logs retrieved successfully","count":0,"logs":[]}`, rec.Body.String(), target)
	}

	rec := serve(t, r, http.MethodGet, "/WeatherForecast/logs")
	var resp logsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, synth.DefaultLimit, resp.Count)

	rec = serve(t, r, http.MethodGet, "/WeatherForecast/logs?limit=lots")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, synth.DefaultLimit, resp.Count)
}

func TestTestLogsEndpoint(t *testing.T) {
	logs := observe(t)
	r := NewRouter(synth.NewGenerator())

	rec := serve(t, r, http.MethodPost, "/WeatherForecast/test-logs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Test logs generated successfully","count":15}`, rec.Body.String())

	seen := map[string]bool{}
	for _, e := range logs.All() {
		seen[logger.LevelName(e.Level)] = true
	}
	for _, lvl := range synth.Levels() {
		assert.True(t, seen[lvl], "missing %s entry", lvl)
	}

	assert.Equal(t, 10, logs.FilterMessageSnippet("Processing item").Len())
	assert.Equal(t, 3, logs.FilterMessageSnippet("Error processing item").Len())
	assert.Equal(t, 1, logs.FilterMessage("Error processing item 3: Simulated error for item 3").Len())
}

func TestErrorTestEndpoint(t *testing.T) {
	logs := observe(t)
	r := NewRouter(synth.NewGenerator())

	rec := serve(t, r, http.MethodGet, "/WeatherForecast/error-test")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t,
		`{"error":"Test error generated","message":"This is a test exception for logging purposes"}`,
		rec.Body.String())

	errs := logs.FilterMessage("An error occurred in the error test endpoint").All()
	require.Len(t, errs, 1)
	assert.Equal(t, zapcore.ErrorLevel, errs[0].Level)
}

func TestPerformanceTestEndpoint(t *testing.T) {
	gen := synth.NewGenerator(synth.WithIntN(func(int) int { return 150 }))
	wc := NewWeatherForecastController(gen)

	var slept time.Duration
	wc.sleep = func(_ <-chan struct{}, d time.Duration) { slept = d }

	r := gin.New()
	wc.Register(r)

	rec := serve(t, r, http.MethodPost, "/WeatherForecast/performance-test")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 250*time.Millisecond, slept)

	var body struct {
		Message   string `json:"message"`
		ElapsedMs int64  `json:"elapsedMs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Performance test completed", body.Message)
	assert.GreaterOrEqual(t, body.ElapsedMs, int64(0))
}

func TestSleepOrDoneReturnsOnCancel(t *testing.T) {
	done := make(chan struct{})
	close(done)
	start := time.Now()
	sleepOrDone(done, time.Minute)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHealthEndpoint(t *testing.T) {
	r := NewRouter(synth.NewGenerator())
	rec := serve(t, r, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	_, err := time.Parse(synth.TimestampLayout, body["timestamp"])
	assert.NoError(t, err)
}

func TestRecoveryReturnsJSON(t *testing.T) {
	r := gin.New()
	r.Use(recovery())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	rec := serve(t, r, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
