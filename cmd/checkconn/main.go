// Command checkconn probes a running gateway and both of its upstreams.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/valyala/fastjson"
)

type check struct {
	Name string
	Path string
	// Validate inspects a 2xx body; nil accepts any body.
	Validate func(body []byte) error
}

type result struct {
	Name     string
	Status   int
	Duration time.Duration
	Err      error
}

func (r result) OK() bool { return r.Err == nil }

var checks = []check{
	{Name: "Log Viewer Server", Path: "/health", Validate: validateHealth},
	{Name: "Loki", Path: "/api/loki/ready"},
	{Name: "LokiTest API", Path: "/api/test/WeatherForecast", Validate: validateForecast},
}

func validateHealth(body []byte) error {
	v, err := fastjson.ParseBytes(body)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if status := string(v.GetStringBytes("status")); status != "OK" {
		return fmt.Errorf("unexpected status %q", status)
	}
	return nil
}

func validateForecast(body []byte) error {
	v, err := fastjson.ParseBytes(body)
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	days, err := v.Array()
	if err != nil {
		return fmt.Errorf("expected an array: %w", err)
	}
	if len(days) == 0 {
		return fmt.Errorf("empty forecast")
	}
	return nil
}

func checkAll(client *http.Client, base string) []result {
	base = strings.TrimRight(base, "/")
	results := make([]result, 0, len(checks))
	for _, c := range checks {
		results = append(results, probe(client, base, c))
	}
	return results
}

func probe(client *http.Client, base string, c check) result {
	res := result{Name: c.Name}
	start := time.Now()
	resp, err := client.Get(base + c.Path)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	res.Status = resp.StatusCode
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = err
		return res
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Err = fmt.Errorf("status %d", resp.StatusCode)
		return res
	}
	if c.Validate != nil {
		res.Err = c.Validate(body)
	}
	return res
}

func main() {
	target := flag.String("t", "http://localhost:3001", "Log Viewer base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "Per-check timeout")
	flag.Parse()

	fmt.Printf("Testing connections via %s:\n\n", *target)

	client := &http.Client{Timeout: *timeout}
	failed := 0
	for _, r := range checkAll(client, *target) {
		if r.OK() {
			fmt.Printf("  PASS  %-18s status=%d time=%v\n", r.Name, r.Status, r.Duration)
			continue
		}
		failed++
		fmt.Printf("  FAIL  %-18s %v\n", r.Name, r.Err)
	}

	fmt.Printf("\n%d/%d checks passed\n", len(checks)-failed, len(checks))
	if failed > 0 {
		os.Exit(1)
	}
}
