package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	"logviewer/logger"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// RequestID reuses an incoming X-Request-ID or assigns a new one, and echoes
// it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// RequestIDFrom returns the id assigned by RequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// StatusRecorder captures the status code written by downstream handlers.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
	Bytes  int
}

func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (s *StatusRecorder) WriteHeader(code int) {
	s.Status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *StatusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.Bytes += n
	return n, err
}

// Unwrap lets http.ResponseController reach Flush on the real writer.
func (s *StatusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// CountryResolver maps a client address to a country code.
type CountryResolver interface {
	Country(host string) string
}

// AccessLog writes one line per request. geo may be nil.
func AccessLog(geo CountryResolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		kv := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", host,
			"response_size", rec.Bytes,
			"request_id", RequestIDFrom(r.Context()),
		}
		if geo != nil {
			if country := geo.Country(host); country != "" {
				kv = append(kv, "country", country)
			}
		}
		logger.Info("request", kv...)
	})
}
