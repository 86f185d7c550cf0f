// Package main provides a standalone health check command.
// It is meant for Docker HEALTHCHECK directives, monitoring scripts
// and quick debugging against a running API server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dspaces1/whatEatBE/pkg/healthcheck"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

type options struct {
	url        string
	timeout    time.Duration
	verbose    bool
	format     string
	expected   string
	retryCount int
	retryDelay time.Duration
}

func main() {
	opts := parseFlags()
	os.Exit(check(opts))
}

func parseFlags() options {
	opts := options{}

	flag.StringVar(&opts.url, "url", "", "Health check endpoint URL (e.g., http://localhost:8080/health)")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVar(&opts.verbose, "verbose", false, "Verbose output")
	flag.StringVar(&opts.format, "format", "text", "Output format: text, json")
	flag.StringVar(&opts.expected, "expect", "healthy", "Expected status: healthy, degraded, unhealthy")
	flag.IntVar(&opts.retryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&opts.retryDelay, "retry-delay", 1*time.Second, "Delay between retries")

	flag.Parse()

	if opts.url == "" {
		if url := os.Getenv("HEALTH_CHECK_URL"); url != "" {
			opts.url = url
		} else {
			opts.url = "http://localhost:8080/health"
		}
	}

	return opts
}

func check(opts options) int {
	client := &http.Client{Timeout: opts.timeout}

	var lastError error
	for attempt := 0; attempt <= opts.retryCount; attempt++ {
		if attempt > 0 {
			if opts.verbose {
				fmt.Printf("Retrying in %v... (attempt %d/%d)\n", opts.retryDelay, attempt, opts.retryCount)
			}
			time.Sleep(opts.retryDelay)
		}

		resp, err := client.Get(opts.url)
		if err != nil {
			lastError = err
			if opts.verbose {
				fmt.Printf("Request failed: %v\n", err)
			}
			continue
		}

		return handleResponse(resp, opts)
	}

	fmt.Printf("Health check failed after %d attempts: %v\n", opts.retryCount+1, lastError)
	return exitCodeError
}

func handleResponse(resp *http.Response, opts options) int {
	defer resp.Body.Close()

	var response healthcheck.Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		fmt.Printf("Failed to decode response: %v\n", err)
		return exitCodeError
	}

	switch opts.format {
	case "json":
		data, _ := json.MarshalIndent(response, "", "  ")
		fmt.Println(string(data))
	default:
		outputText(response, opts.verbose)
	}

	if response.Status == healthcheck.Status(opts.expected) {
		return exitCodeSuccess
	}
	if response.Status == healthcheck.StatusUnhealthy {
		return exitCodeFailure
	}
	if response.Status == healthcheck.StatusDegraded && opts.expected == string(healthcheck.StatusHealthy) {
		return exitCodeFailure
	}
	return exitCodeSuccess
}

func outputText(r healthcheck.Response, verbose bool) {
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Version: %s\n", r.Version)
	fmt.Printf("Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Printf("Duration: %dms\n", r.TotalDuration.Milliseconds())

	if verbose && len(r.Checks) > 0 {
		fmt.Println("\nChecks:")
		for _, check := range r.Checks {
			fmt.Printf("  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Printf(" (%s)", check.Message)
			}
			fmt.Printf(" [%dms]\n", check.Duration.Milliseconds())
		}
	}
}
