package pipeline

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nkarpenko/slate/internal/cache"
	"github.com/nkarpenko/slate/internal/model"
	"github.com/nkarpenko/slate/internal/util"
)

// Fetcher retrieves article HTML with robots.txt compliance, per-domain
// rate limiting, and a read-through body cache.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *util.Limiter
	store      cache.Cache
	ttl        model.CacheConfig
}

// NewFetcher creates a fetcher from configuration. store may be nil to
// disable caching; robots checking is skipped when cfg.RespectRobots is off.
func NewFetcher(cfg model.HTTPConfig, cacheCfg model.CacheConfig, store cache.Cache, limiter *util.Limiter) *Fetcher {
	transport := &http.Transport{}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	var robots *util.RobotsChecker
	if cfg.RespectRobots {
		robots = util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		robots:    robots,
		limiter:   limiter,
		store:     store,
		ttl:       cacheCfg,
	}
}

// FetchResult contains the fetched HTML and derived metadata.
type FetchResult struct {
	HTML     string
	FinalURL string
	Subject  string
	Cached   bool
}

// Fetch retrieves the article at rawURL, honoring robots.txt and the
// per-domain rate limit, serving from cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.store != nil {
		if body, found := f.store.Get(cache.Key(rawURL)); found {
			return &FetchResult{
				HTML:     string(body),
				FinalURL: rawURL,
				Subject:  extractSubject(rawURL),
				Cached:   true,
			}, nil
		}
	}

	if f.robots != nil {
		allowed, _, err := f.robots.CanFetch(ctx, rawURL)
		if err == nil && !allowed {
			return nil, fmt.Errorf("robots.txt disallows fetching %s", rawURL)
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	if f.store != nil {
		_ = f.store.Set(cache.Key(rawURL), body, f.ttl.TTL)
	}

	return &FetchResult{
		HTML:     string(body),
		FinalURL: finalURL,
		Subject:  extractSubject(finalURL),
	}, nil
}

// extractSubject derives a human-readable subject from the URL path.
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}
	return last
}

// siteProfile picks the container-detection profile for a URL.
func siteProfile(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if strings.Contains(parsed.Host, "wikipedia.org") {
		return "wikipedia"
	}
	return ""
}
