// Package synth fabricates the demo payloads served by the sample API:
// weather forecasts and filterable pseudo log records.
package synth

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// TimestampLayout is ISO-8601 with milliseconds and a literal UTC suffix.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var levels = [...]string{"trace", "debug", "info", "warn", "error", "critical"}

var messages = [...]string{
	"Weather forecast requested",
	"Generated 5 weather forecasts",
	"Starting test log generation",
	"Processing item 1 of 10 with status Success",
	"Error processing item 3: Simulated error for item 3",
	"Performance test completed in 250ms",
	"Starting performance test",
	"Error test endpoint called",
	"An error occurred in the error test endpoint",
	"Test log generation completed",
	"User authentication successful",
	"Database connection established",
	"Cache miss for key: user:123",
	"API rate limit exceeded",
	"File upload completed successfully",
}

var sources = [...]string{
	"WeatherForecastController",
	"AuthService",
	"DatabaseService",
	"CacheService",
	"FileService",
}

var summaries = [...]string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild",
	"Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// Levels returns the level enumeration in severity order.
func Levels() []string { return slices.Clone(levels[:]) }

// Messages returns the canned log messages.
func Messages() []string { return slices.Clone(messages[:]) }

// Sources returns the component names records are attributed to.
func Sources() []string { return slices.Clone(sources[:]) }

// Summaries returns the forecast summary adjectives.
func Summaries() []string { return slices.Clone(summaries[:]) }

// LogRecord is one synthetic log line.
type LogRecord struct {
	Timestamp string
	Level     string
	Message   string
	Source    string
}

// Raw renders the record as a bracketed log line. It is always derived from
// the other fields.
func (r LogRecord) Raw() string {
	return fmt.Sprintf("[%s] [%s] [%s] %s", r.Timestamp, strings.ToUpper(r.Level), r.Source, r.Message)
}

type logRecordJSON struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Source    string `json:"source"`
	Raw       string `json:"raw"`
}

func (r LogRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(logRecordJSON{
		Timestamp: r.Timestamp,
		Level:     r.Level,
		Message:   r.Message,
		Source:    r.Source,
		Raw:       r.Raw(),
	})
}

// UnmarshalJSON ignores any incoming raw field; Raw is recomputed on demand.
func (r *LogRecord) UnmarshalJSON(data []byte) error {
	var v logRecordJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = LogRecord{Timestamp: v.Timestamp, Level: v.Level, Message: v.Message, Source: v.Source}
	return nil
}

// Forecast is one day of the fabricated weather forecast.
type Forecast struct {
	Date         string `json:"date"`
	TemperatureC int    `json:"temperatureC"`
	TemperatureF int    `json:"temperatureF"`
	Summary      string `json:"summary"`
}
