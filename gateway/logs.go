package gateway

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"logviewer/logger"

	"github.com/valyala/fastjson"
)

const defaultLogsLimit = "25"

var parserPool fastjson.ParserPool

// handleLogs relays the sample API's synthetic logs. Any failure to obtain a
// JSON body from a 2xx response becomes a 500 with the reason.
func (g *Gateway) handleLogs(w http.ResponseWriter, r *http.Request) {
	body, err := g.fetchLogs(r)
	if err != nil {
		logger.Error("Error getting real logs", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to get real logs: " + err.Error(),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (g *Gateway) fetchLogs(r *http.Request) ([]byte, error) {
	q := r.URL.Query()
	limit := q.Get("limit")
	if limit == "" {
		limit = defaultLogsLimit
	}
	params := url.Values{}
	params.Set("level", q.Get("level"))
	params.Set("search", q.Get("search"))
	params.Set("limit", limit)

	target := strings.TrimRight(g.opts.APIURL, "/") + "/WeatherForecast/logs?" + params.Encode()
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if id := r.Header.Get("X-Request-ID"); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := g.opts.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API returned %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	p := parserPool.Get()
	defer parserPool.Put(p)
	v, err := p.ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON from API: %w", err)
	}
	logger.Debug("Relayed logs from API", "count", v.GetInt("count"))
	return v.MarshalTo(nil), nil
}
