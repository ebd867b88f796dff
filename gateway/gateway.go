// Package gateway wires the LogViewer edge: static UI, the two forwarding
// rules, the logs convenience endpoint and the liveness probe.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"logviewer/filter"
	"logviewer/logger"
	"logviewer/middleware"
	"logviewer/notifier"
	"logviewer/proxy"
	"logviewer/store"
	"logviewer/synth"
)

const (
	LokiPrefix = "/api/loki"
	TestPrefix = "/api/test"
)

type Options struct {
	LokiURL   string
	APIURL    string
	StaticDir string
	IndexFile string

	Store    store.Storer
	Limiter  *filter.RateLimiter
	Geo      *filter.GeoLocator
	Notifier *notifier.Notifier

	// Client is used by /api/logs; defaults to a client without timeout.
	Client *http.Client
	Now    func() time.Time
}

type Gateway struct {
	opts    Options
	handler http.Handler
}

func New(opts Options) (*Gateway, error) {
	if opts.Store == nil {
		opts.Store = store.NewLocalStore()
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StaticDir == "" {
		opts.StaticDir = "."
	}
	if opts.IndexFile == "" {
		opts.IndexFile = "index.html"
	}

	g := &Gateway{opts: opts}

	onError := func(rule proxy.Rule, r *http.Request, err error) {
		opts.Notifier.SendAlert(fmt.Sprintf("%s unreachable at %s: %v", rule.Name, rule.Target, err), "error")
	}

	loki, err := proxy.NewReverseProxy(proxy.Rule{
		Name:         "Loki",
		Prefix:       LokiPrefix,
		Target:       opts.LokiURL,
		ErrorMessage: "Failed to connect to Loki",
	}, onError)
	if err != nil {
		return nil, err
	}
	api, err := proxy.NewReverseProxy(proxy.Rule{
		Name:         "API",
		Prefix:       TestPrefix,
		Target:       opts.APIURL,
		ErrorMessage: "Failed to connect to API",
	}, onError)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(LokiPrefix, loki)
	mux.Handle(LokiPrefix+"/", loki)
	mux.Handle(TestPrefix, api)
	mux.Handle(TestPrefix+"/", api)
	mux.HandleFunc("GET /api/logs", g.handleLogs)
	mux.HandleFunc("GET /health", g.handleHealth)
	// Method-less so it does not conflict with the method-less proxy prefixes.
	mux.Handle("/", g.staticHandler())

	if opts.Limiter != nil {
		opts.Limiter.Exempt = func(r *http.Request) bool { return r.URL.Path == "/health" }
	}

	var h http.Handler = mux
	h = opts.Limiter.Middleware(h)
	h = g.instrument(h)
	h = middleware.AccessLog(opts.Geo, h)
	h = middleware.RequestID(h)
	h = middleware.CORS(h)
	h = middleware.SecurityHeaders(h)
	g.handler = h

	return g, nil
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.handler.ServeHTTP(w, r)
}

// RouteOf names the destination a path is dispatched to.
func RouteOf(path string) string {
	switch {
	case path == LokiPrefix || strings.HasPrefix(path, LokiPrefix+"/"):
		return "loki"
	case path == TestPrefix || strings.HasPrefix(path, TestPrefix+"/"):
		return "api"
	case path == "/api/logs":
		return "logs"
	case path == "/health":
		return "health"
	default:
		return "static"
	}
}

func (g *Gateway) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := RouteOf(r.URL.Path)
		filter.ActiveRequests.Inc()
		defer filter.ActiveRequests.Dec()

		start := time.Now()
		rec := middleware.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		filter.RequestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		filter.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.Status)).Inc()

		// Off the response path; counter failures never fail the request.
		ctx := context.WithoutCancel(r.Context())
		go func() {
			ctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			if _, err := g.opts.Store.Increment(ctx, "route:"+route); err != nil {
				logger.Warn("Failed to record route counter", "route", route, "err", err)
			}
		}()
	})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": g.opts.Now().UTC().Format(synth.TimestampLayout),
	})
}

// staticHandler serves the entry document for "/" and assets otherwise.
func (g *Gateway) staticHandler() http.Handler {
	files := http.FileServer(http.Dir(g.opts.StaticDir))
	index := filepath.Join(g.opts.StaticDir, g.opts.IndexFile)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
			return
		}
		if r.URL.Path == "/" {
			http.ServeFile(w, r, index)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
