package proxy

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"logviewer/filter"
	"logviewer/logger"
)

// Rule forwards everything under Prefix to Target with the prefix removed.
type Rule struct {
	Name         string
	Prefix       string
	Target       string
	ErrorMessage string
}

// ErrorHook is told about every request that failed to reach the upstream.
type ErrorHook func(rule Rule, r *http.Request, err error)

type ReverseProxy struct {
	Rule  Rule
	Proxy *httputil.ReverseProxy
}

func NewReverseProxy(rule Rule, onError ErrorHook) (*ReverseProxy, error) {
	target, err := url.Parse(rule.Target)
	if err != nil {
		return nil, fmt.Errorf("parse %s target: %w", rule.Name, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%s target must be an absolute URL: %q", rule.Name, rule.Target)
	}
	if rule.ErrorMessage == "" {
		rule.ErrorMessage = "Failed to connect to " + rule.Name
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = StripPrefix(pr.In.URL.Path, rule.Prefix)
			if pr.In.URL.RawPath != "" {
				pr.Out.URL.RawPath = StripPrefix(pr.In.URL.RawPath, rule.Prefix)
			}
			// SetURL also rewrites the Host header to the target.
			pr.SetURL(target)
			pr.SetXForwarded()
		},
	}

	// Dial and handshake bounds only; the overall exchange has no deadline.
	proxy.Transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	// The gateway sets its own CORS headers; an upstream copy would duplicate them.
	proxy.ModifyResponse = func(resp *http.Response) error {
		resp.Header.Del("Access-Control-Allow-Origin")
		return nil
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error(rule.Name+" proxy error", "err", err, "path", r.URL.Path, "target", rule.Target)
		filter.UpstreamErrors.WithLabelValues(rule.Name).Inc()
		if onError != nil {
			onError(rule, r, err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": rule.ErrorMessage})
	}

	return &ReverseProxy{Rule: rule, Proxy: proxy}, nil
}

func (p *ReverseProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.Proxy.ServeHTTP(w, r)
}

// StripPrefix removes prefix from path, always leaving a rooted path.
func StripPrefix(path, prefix string) string {
	p := strings.TrimPrefix(path, prefix)
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return p
}
