package filter

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"logviewer/logger"

	"golang.org/x/time/rate"
)

// clientLimiter holds a token bucket limiter per client along with the last time it was seen.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-client token bucket rate limiting.
// A non-positive rate disables it. Stale entries are purged every 5 minutes.
type RateLimiter struct {
	rate    rate.Limit
	burst   int
	mu      sync.Mutex
	clients map[string]*clientLimiter
	done    chan struct{}
	once    sync.Once

	// Exempt requests bypass the limiter.
	Exempt func(r *http.Request) bool
}

func NewRateLimiter(r float64, b int) *RateLimiter {
	if b <= 0 {
		b = 1
	}
	f := &RateLimiter{
		rate:    rate.Limit(r),
		burst:   b,
		clients: make(map[string]*clientLimiter),
		done:    make(chan struct{}),
	}
	if f.Enabled() {
		go f.cleanupLoop(5*time.Minute, 10*time.Minute)
	}
	return f
}

func (f *RateLimiter) Enabled() bool {
	return f != nil && f.rate > 0
}

// Stop ends the cleanup loop.
func (f *RateLimiter) Stop() {
	f.once.Do(func() { close(f.done) })
}

// Allow reports whether the client identified by host may proceed.
func (f *RateLimiter) Allow(host string) bool {
	if !f.Enabled() {
		return true
	}
	return f.getLimiter(host).Allow()
}

func (f *RateLimiter) getLimiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, exists := f.clients[host]
	if !exists {
		lim := rate.NewLimiter(f.rate, f.burst)
		f.clients[host] = &clientLimiter{limiter: lim, lastSeen: time.Now()}
		return lim
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (f *RateLimiter) purge(maxIdle time.Duration) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for host, entry := range f.clients {
		if time.Since(entry.lastSeen) > maxIdle {
			delete(f.clients, host)
			n++
		}
	}
	return n
}

func (f *RateLimiter) cleanupLoop(every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := f.purge(maxIdle); n > 0 {
				logger.Debug("Rate limiter: stale client entries purged", "count", n)
			}
		case <-f.done:
			return
		}
	}
}

func (f *RateLimiter) Middleware(next http.Handler) http.Handler {
	if !f.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.Exempt != nil && f.Exempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		if !f.Allow(host) {
			logger.Warn("Rate limit exceeded", "remote_addr", host,
				"rate", float64(f.rate), "burst", f.burst)
			RateLimited.Inc()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "Rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
