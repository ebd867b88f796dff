package synth

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultLimit is used when no limit is supplied.
	DefaultLimit = 25
	// ForecastDays is the number of records in a forecast.
	ForecastDays = 5

	maxAgeMinutes = 120
	minTempC      = -20
	maxTempC      = 55
)

// Query selects which synthetic records survive. Empty Level or Search
// disables that filter.
type Query struct {
	Level  string
	Search string
	Limit  int
}

// Generator draws records. The zero value is not usable; use NewGenerator.
type Generator struct {
	now  func() time.Time
	intN func(n int) int
}

type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIntN overrides the random source. It must return a value in [0, n) and
// be safe for concurrent use if the generator is shared.
func WithIntN(intN func(n int) int) Option {
	return func(g *Generator) { g.intN = intN }
}

// NewGenerator uses the math/rand/v2 global source, which is safe for
// concurrent use.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now, intN: rand.IntN}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IntN draws from the generator's random source.
func (g *Generator) IntN(n int) int {
	return g.intN(n)
}

func (g *Generator) pick(table []string) string {
	return table[g.intN(len(table))]
}

// Record draws one candidate record.
func (g *Generator) Record() LogRecord {
	ts := g.now().UTC().Add(-time.Duration(g.intN(maxAgeMinutes)) * time.Minute)
	return LogRecord{
		Timestamp: ts.Format(TimestampLayout),
		Level:     g.pick(levels[:]),
		Message:   g.pick(messages[:]),
		Source:    g.pick(sources[:]),
	}
}

// Logs draws exactly q.Limit candidates and keeps the ones that pass both
// filters, most recent first. Discarded candidates are not replaced, so the
// result may be shorter than q.Limit. A non-positive limit yields no records.
func (g *Generator) Logs(q Query) []LogRecord {
	level := strings.ToLower(q.Level)
	search := strings.ToLower(q.Search)

	out := make([]LogRecord, 0)
	for i := 0; i < q.Limit; i++ {
		rec := g.Record()
		if !matches(rec, level, search) {
			continue
		}
		out = append(out, rec)
	}

	slices.SortStableFunc(out, func(a, b LogRecord) int {
		return strings.Compare(b.Timestamp, a.Timestamp)
	})
	return out
}

// matches expects level and search already lower-cased.
func matches(rec LogRecord, level, search string) bool {
	if level != "" && rec.Level != level {
		return false
	}
	if search != "" && !strings.Contains(strings.ToLower(rec.Message), search) {
		return false
	}
	return true
}

// Forecast returns ForecastDays records starting tomorrow.
func (g *Generator) Forecast() []Forecast {
	today := g.now()
	out := make([]Forecast, 0, ForecastDays)
	for day := 1; day <= ForecastDays; day++ {
		c := minTempC + g.intN(maxTempC-minTempC)
		out = append(out, Forecast{
			Date:         today.AddDate(0, 0, day).Format(time.DateOnly),
			TemperatureC: c,
			TemperatureF: 32 + int(float64(c)/0.5556),
			Summary:      g.pick(summaries[:]),
		})
	}
	return out
}

// ParseLimit reads a limit query value. Missing or malformed input falls back
// to DefaultLimit; numeric values are passed through unvalidated.
func ParseLimit(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLimit
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return DefaultLimit
	}
	return n
}
