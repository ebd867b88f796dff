// Command loadgen drives traffic through the gateway into the sample API so
// the log pipeline has something to show.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

type endpoint struct {
	Method string
	Path   string
}

var modes = map[string]endpoint{
	"forecast": {http.MethodGet, "/api/test/WeatherForecast"},
	"testlogs": {http.MethodPost, "/api/test/WeatherForecast/test-logs"},
	"logs":     {http.MethodGet, "/api/logs?limit=50"},
	"error":    {http.MethodGet, "/api/test/WeatherForecast/error-test"},
	"perf":     {http.MethodPost, "/api/test/WeatherForecast/performance-test"},
}

type result struct {
	status  int
	latency time.Duration
}

type report struct {
	Total       int
	Elapsed     time.Duration
	StatusCodes map[int]int
	Latencies   []time.Duration // sorted ascending
}

// Percentile returns the latency at fraction p of the sorted sample.
func (r report) Percentile(p float64) time.Duration {
	if len(r.Latencies) == 0 {
		return 0
	}
	i := int(float64(len(r.Latencies)) * p)
	if i >= len(r.Latencies) {
		i = len(r.Latencies) - 1
	}
	return r.Latencies[i]
}

func generate(client *http.Client, target string, ep endpoint, concurrency, requests int) report {
	if concurrency <= 0 {
		concurrency = 1
	}
	if requests < 0 {
		requests = 0
	}
	results := make(chan result, requests)
	jobs := make(chan struct{}, requests)
	for i := 0; i < requests; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	url := strings.TrimRight(target, "/") + ep.Path
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				reqStart := time.Now()
				status := 0
				req, err := http.NewRequest(ep.Method, url, nil)
				if err == nil {
					var resp *http.Response
					if resp, err = client.Do(req); err == nil {
						status = resp.StatusCode
						resp.Body.Close()
					}
				}
				results <- result{status: status, latency: time.Since(reqStart)}
			}
		}()
	}
	wg.Wait()
	close(results)

	rep := report{Elapsed: time.Since(start), StatusCodes: make(map[int]int)}
	for res := range results {
		rep.Total++
		rep.StatusCodes[res.status]++
		rep.Latencies = append(rep.Latencies, res.latency)
	}
	slices.Sort(rep.Latencies)
	return rep
}

func label(code int) string {
	switch {
	case code == 0:
		return "Connection Error"
	case code == http.StatusTooManyRequests:
		return "Rate Limited"
	case code >= 200 && code < 300:
		return "OK"
	case code >= 500:
		return "Server Error"
	default:
		return http.StatusText(code)
	}
}

func main() {
	target := flag.String("target", "http://localhost:3001", "Log Viewer base URL")
	concurrency := flag.Int("c", 10, "Concurrency level (number of goroutines)")
	requests := flag.Int("n", 100, "Total number of requests")
	mode := flag.String("mode", "forecast", "Endpoint: forecast, testlogs, logs, error, perf")
	flag.Parse()

	ep, ok := modes[*mode]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}

	fmt.Printf("Starting LogViewer load run\n")
	fmt.Printf("Target:      %s%s\n", *target, ep.Path)
	fmt.Printf("Concurrency: %d routines\n", *concurrency)
	fmt.Printf("Requests:    %d total\n", *requests)
	fmt.Printf("----------------------------------\n")

	rep := generate(&http.Client{Timeout: 10 * time.Second}, *target, ep, *concurrency, *requests)
	if rep.Total == 0 {
		fmt.Println("No requests completed.")
		return
	}

	var sum time.Duration
	for _, l := range rep.Latencies {
		sum += l
	}

	fmt.Printf("\n--- Throughput & Timing ---\n")
	fmt.Printf("Total Time:     %v\n", rep.Elapsed)
	fmt.Printf("Requests/sec:   %.2f\n", float64(rep.Total)/rep.Elapsed.Seconds())
	fmt.Printf("Avg Latency:    %v\n", sum/time.Duration(rep.Total))
	fmt.Printf("Min Latency:    %v\n", rep.Latencies[0])
	fmt.Printf("Max Latency:    %v\n", rep.Latencies[rep.Total-1])

	fmt.Printf("\n--- Latency Percentiles ---\n")
	for _, p := range []float64{0.5, 0.9, 0.95, 0.99} {
		fmt.Printf("  p%d: %v\n", int(p*100), rep.Percentile(p))
	}

	codes := make([]int, 0, len(rep.StatusCodes))
	for code := range rep.StatusCodes {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	fmt.Printf("\n--- Status Codes ---\n")
	for _, code := range codes {
		fmt.Printf("  [%d] %-18s : %d\n", code, label(code), rep.StatusCodes[code])
	}
	fmt.Printf("----------------------------------\n")
}
