// Package webfetch implements the guarded page fetcher used by the
// recipe importer. It is the only component that talks to arbitrary
// user-supplied URLs, so every SSRF, size and redirect restriction
// lives here.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	"github.com/dspaces1/whatEatBE/pkg/errors"
)

// Options configures a Fetcher. Zero values fall back to the defaults
// below.
type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	MaxRedirects int
	MaxURLLength int
	UserAgent    string

	// AllowPrivateNetworks disables the SSRF address checks. Only for
	// local development and tests against loopback servers.
	AllowPrivateNetworks bool
}

const (
	defaultTimeout      = 8 * time.Second
	defaultMaxBodyBytes = 1536 * 1024 // 1.5 MB
	defaultMaxRedirects = 3
	defaultMaxURLLength = 2048
	defaultUserAgent    = "WhatEatBot/1.0 (+https://whateat.app)"
)

// allowedContentTypes lists the media types the importer can extract
// from. Everything else is rejected before the body is read.
var allowedContentTypes = []string{
	"text/html",
	"application/xhtml+xml",
	"application/json",
	"application/ld+json",
}

// privateCIDRs are the IPv4/IPv6 ranges the fetcher never connects to:
// loopback, RFC1918, link-local, CGNAT and unique-local addresses.
var privateCIDRs = func() []*net.IPNet {
	blocks := []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"100.64.0.0/10",
		"0.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, b := range blocks {
		_, n, err := net.ParseCIDR(b)
		if err != nil {
			panic(fmt.Sprintf("bad private CIDR %q: %v", b, err))
		}
		nets = append(nets, n)
	}
	return nets
}()

// Fetcher is the outbound.PageFetcher implementation.
type Fetcher struct {
	client *http.Client
	opts   Options
	logger *zap.Logger
	lookup func(host string) ([]net.IP, error)
}

// NewFetcher creates a guarded fetcher.
func NewFetcher(opts Options, logger *zap.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaultMaxRedirects
	}
	if opts.MaxURLLength <= 0 {
		opts.MaxURLLength = defaultMaxURLLength
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	return &Fetcher{
		client: &http.Client{
			// Redirects are followed manually so each hop can be
			// revalidated against the private ranges.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		opts:   opts,
		logger: logger,
		lookup: net.LookupIP,
	}
}

var _ outbound.PageFetcher = (*Fetcher)(nil)

// Fetch validates and downloads rawURL, following at most MaxRedirects
// redirects and revalidating safety on every hop. All failures are
// typed import errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*outbound.FetchResult, error) {
	target, err := f.validateURL(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	redirects := 0
	for {
		if err := f.checkHostSafety(target); err != nil {
			return nil, err
		}

		resp, err := f.do(ctx, target)
		if err != nil {
			return nil, errors.NewImportFetchFailedError("request failed", err)
		}

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			resp.Body.Close()
			if location == "" {
				return nil, errors.NewImportFetchFailedError("redirect without location", nil)
			}

			redirects++
			if redirects > f.opts.MaxRedirects {
				return nil, errors.NewImportTooManyRedirectsError(f.opts.MaxRedirects)
			}

			next, err := target.Parse(location)
			if err != nil {
				return nil, errors.NewImportFetchFailedError("invalid redirect location", err)
			}
			validated, err := f.validateURL(next.String())
			if err != nil {
				return nil, err
			}

			f.logger.Debug("following redirect",
				zap.String("from", target.String()),
				zap.String("to", validated.String()),
				zap.Int("hop", redirects),
			)
			target = validated
			continue
		}

		return f.readResponse(resp, target)
	}
}

func (f *Fetcher) do(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json,application/ld+json")
	return f.client.Do(req)
}

func (f *Fetcher) readResponse(resp *http.Response, target *url.URL) (*outbound.FetchResult, error) {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewImportFetchFailedError(
			fmt.Sprintf("upstream returned status %d", resp.StatusCode), nil)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isAllowedContentType(contentType) {
		return nil, errors.NewImportUnsupportedContentError(contentType)
	}

	// Header pre-check: reject before reading a single body byte.
	if resp.ContentLength > f.opts.MaxBodyBytes {
		return nil, errors.NewImportContentTooLargeError(f.opts.MaxBodyBytes)
	}

	// Live accounting: one byte past the cap aborts the read.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, errors.NewImportFetchFailedError("reading response body", err)
	}
	if int64(len(body)) > f.opts.MaxBodyBytes {
		return nil, errors.NewImportContentTooLargeError(f.opts.MaxBodyBytes)
	}

	return &outbound.FetchResult{
		Body:        body,
		FinalURL:    target.String(),
		ContentType: contentType,
	}, nil
}

// validateURL applies the static URL checks: scheme, length, embedded
// credentials and localhost-style hostnames.
func (f *Fetcher) validateURL(rawURL string) (*url.URL, error) {
	if len(rawURL) > f.opts.MaxURLLength {
		return nil, errors.NewImportInvalidURLError("URL is too long")
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, errors.NewImportInvalidURLError("URL is malformed")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NewImportInvalidURLError("only http and https URLs are supported")
	}
	if u.User != nil {
		return nil, errors.NewImportInvalidURLError("URLs with embedded credentials are not allowed")
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, errors.NewImportInvalidURLError("URL has no host")
	}
	if host == "localhost" || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".localhost") {
		return nil, errors.NewImportInvalidURLError("localhost URLs are not allowed")
	}

	return u, nil
}

// checkHostSafety resolves the host and rejects it when any returned
// address falls in a private, loopback, link-local, CGNAT or
// unique-local range. Checking every address closes the door on
// multi-record DNS answers that mix public and internal IPs.
func (f *Fetcher) checkHostSafety(u *url.URL) error {
	if f.opts.AllowPrivateNetworks {
		return nil
	}

	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return errors.NewImportURLBlockedError(host)
		}
		return nil
	}

	ips, err := f.lookup(host)
	if err != nil {
		return errors.NewImportFetchFailedError("DNS resolution failed", err)
	}
	if len(ips) == 0 {
		return errors.NewImportFetchFailedError("host did not resolve", nil)
	}

	for _, ip := range ips {
		if isPrivateIP(ip) {
			f.logger.Warn("blocked URL resolving to private address",
				zap.String("host", host),
				zap.String("ip", ip.String()),
			)
			return errors.NewImportURLBlockedError(host)
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, block := range privateCIDRs {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	}
	return false
}

func isAllowedContentType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	for _, allowed := range allowedContentTypes {
		if mediaType == allowed {
			return true
		}
	}
	return false
}
