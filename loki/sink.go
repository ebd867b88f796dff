// Package loki ships structured log entries to a Loki-compatible push API.
package loki

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"logviewer/logger"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zapcore"
)

const pushPath = "/loki/api/v1/push"

var sinkEntries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "loki_sink_entries_total",
		Help: "Log entries handled by the Loki sink, by outcome",
	},
	[]string{"result"},
)

// Options configures a Sink. Zero values pick the defaults below.
type Options struct {
	URL    string
	Labels map[string]string
	Level  zapcore.LevelEnabler

	QueueSize     int           // 10000
	BatchSize     int           // 100
	FlushInterval time.Duration // 1s
	Timeout       time.Duration // 5s
}

type entry struct {
	ts    time.Time
	level string
	line  string
}

// Sink batches entries in the background and pushes them with a single
// attempt per batch. A full queue drops entries.
type Sink struct {
	url    string
	labels map[string]string
	level  zapcore.LevelEnabler

	batchSize int
	interval  time.Duration
	timeout   time.Duration

	client *fasthttp.Client
	queue  chan entry
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewSink(opts Options) (*Sink, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("loki url is required")
	}
	if !strings.HasPrefix(opts.URL, "http://") && !strings.HasPrefix(opts.URL, "https://") {
		return nil, fmt.Errorf("loki url must be http(s): %q", opts.URL)
	}

	s := &Sink{
		url:       strings.TrimRight(opts.URL, "/") + pushPath,
		labels:    make(map[string]string, len(opts.Labels)+1),
		level:     opts.Level,
		batchSize: opts.BatchSize,
		interval:  opts.FlushInterval,
		timeout:   opts.Timeout,
		done:      make(chan struct{}),
	}
	for k, v := range opts.Labels {
		s.labels[k] = v
	}
	if _, ok := s.labels["instance"]; !ok {
		s.labels["instance"] = uuid.New().String()
	}
	if s.level == nil {
		s.level = zapcore.DebugLevel
	}
	if s.batchSize <= 0 {
		s.batchSize = 100
	}
	if s.interval <= 0 {
		s.interval = time.Second
	}
	if s.timeout <= 0 {
		s.timeout = 5 * time.Second
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 10000
	}
	s.queue = make(chan entry, queueSize)

	s.client = &fasthttp.Client{
		MaxConnsPerHost:     4,
		MaxIdleConnDuration: 10 * time.Second,
		ReadTimeout:         s.timeout,
		WriteTimeout:        s.timeout,
	}

	s.wg.Add(1)
	go s.runLoop()
	return s, nil
}

// Core adapts the sink to zap so it can be teed with the other outputs.
func (s *Sink) Core() zapcore.Core {
	return &core{
		LevelEnabler: s.level,
		sink:         s,
		enc:          zapcore.NewJSONEncoder(logger.EncoderConfig(logger.LevelEncoder)),
	}
}

func (s *Sink) enqueue(e entry) {
	select {
	case <-s.done:
		sinkEntries.WithLabelValues("dropped").Inc()
		return
	default:
	}
	select {
	case s.queue <- e:
	default:
		sinkEntries.WithLabelValues("dropped").Inc()
		fmt.Fprintf(os.Stderr, "loki sink queue full: dropping entry\n")
	}
}

// Close stops the loop after flushing whatever is queued.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

func (s *Sink) runLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var batch []entry
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.push(batch); err != nil {
			sinkEntries.WithLabelValues("failed").Add(float64(len(batch)))
			fmt.Fprintf(os.Stderr, "loki push failed: %v\n", err)
		} else {
			sinkEntries.WithLabelValues("sent").Add(float64(len(batch)))
		}
		batch = nil
	}

	for {
		select {
		case e := <-s.queue:
			batch = append(batch, e)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			for {
				select {
				case e := <-s.queue:
					batch = append(batch, e)
				default:
					flush()
					return
				}
			}
		}
	}
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// encodeBatch groups entries into one stream per level.
func (s *Sink) encodeBatch(batch []entry) ([]byte, error) {
	byLevel := make(map[string]int)
	var req pushRequest
	for _, e := range batch {
		i, ok := byLevel[e.level]
		if !ok {
			labels := make(map[string]string, len(s.labels)+1)
			for k, v := range s.labels {
				labels[k] = v
			}
			labels["level"] = e.level
			req.Streams = append(req.Streams, stream{Stream: labels})
			i = len(req.Streams) - 1
			byLevel[e.level] = i
		}
		req.Streams[i].Values = append(req.Streams[i].Values,
			[2]string{strconv.FormatInt(e.ts.UnixNano(), 10), e.line})
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(req); err != nil {
		return nil, fmt.Errorf("encode push request: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress push request: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Sink) push(batch []entry) error {
	body, err := s.encodeBatch(batch)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.SetBodyRaw(body)

	if err := s.client.DoTimeout(req, resp, s.timeout); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("server returned status %d: %s", code, bytes.TrimSpace(resp.Body()))
	}
	return nil
}

type core struct {
	zapcore.LevelEnabler
	sink *Sink
	enc  zapcore.Encoder
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := &core{LevelEnabler: c.LevelEnabler, sink: c.sink, enc: c.enc.Clone()}
	for _, f := range fields {
		f.AddTo(clone.enc)
	}
	return clone
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	line := strings.TrimRight(buf.String(), "\n")
	buf.Free()
	c.sink.enqueue(entry{ts: ent.Time, level: logger.LevelName(ent.Level), line: line})
	return nil
}

func (c *core) Sync() error {
	return nil
}
