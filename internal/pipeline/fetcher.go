package pipeline

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/medscrape/internal/cache"
	"github.com/ppiankov/medscrape/internal/markup"
	"github.com/ppiankov/medscrape/internal/model"
	"github.com/ppiankov/medscrape/internal/observability"
	"github.com/ppiankov/medscrape/internal/util"
)

const maxRedirects = 3

// FetchError reports a page that could not be retrieved: a transport
// failure, a non-2xx status, an oversized body, or a robots.txt refusal.
type FetchError struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Limiter paces outgoing requests
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// RobotsPolicy decides whether a URL may be fetched
type RobotsPolicy interface {
	CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error)
}

type crawlDelaySetter interface {
	SetCrawlDelay(domain string, delay time.Duration)
}

// Fetcher retrieves pages. Failures are reported once and never retried.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    Limiter
	robots     RobotsPolicy
	cache      cache.Cache
	cacheTTL   time.Duration
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// FetcherOption configures optional Fetcher collaborators
type FetcherOption func(*Fetcher)

// WithLimiter paces every request through l
func WithLimiter(l Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithRobots refuses URLs the policy disallows
func WithRobots(r RobotsPolicy) FetcherOption {
	return func(f *Fetcher) { f.robots = r }
}

// WithCache serves and stores successful bodies through c. A nil c disables caching.
func WithCache(c cache.Cache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.cache = c
		f.cacheTTL = ttl
	}
}

// WithMetrics records fetch statuses, latency and cache traffic in m
func WithMetrics(m *observability.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

func WithLogger(logger zerolog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = logger }
}

// NewFetcher creates a Fetcher from the HTTP settings
func NewFetcher(cfg model.HTTPConfig, opts ...FetcherOption) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		logger:    zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client exposes the configured HTTP client so robots.txt lookups share
// its proxy and TLS settings.
func (f *Fetcher) Client() *http.Client {
	return f.httpClient
}

// FetchResult is a retrieved page body
type FetchResult struct {
	HTML       string
	StatusCode int
	FinalURL   string
	FromCache  bool
}

// Fetch retrieves rawURL. Any non-2xx status or transport error is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.PageKey(rawURL)
	if f.cache != nil {
		if body, ok := f.cache.Get(key); ok {
			f.metrics.ObserveCache("hit")
			f.logger.Debug().Str("url", rawURL).Msg("cache hit")
			return &FetchResult{HTML: string(body), StatusCode: http.StatusOK, FinalURL: rawURL, FromCache: true}, nil
		}
		f.metrics.ObserveCache("miss")
	}

	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, &FetchError{URL: rawURL, Message: "robots check", Cause: err}
		}
		if !allowed {
			return nil, &FetchError{URL: rawURL, Message: "disallowed by robots.txt"}
		}
		if setter, ok := f.limiter.(crawlDelaySetter); ok && delay > 0 {
			if u, err := url.Parse(rawURL); err == nil {
				setter.SetCrawlDelay(u.Host, delay)
			}
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, &FetchError{URL: rawURL, Message: "rate limiter", Cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Message: "create request", Cause: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.metrics.ObserveFetch(0, time.Since(start))
		return nil, &FetchError{URL: rawURL, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	f.metrics.ObserveFetch(resp.StatusCode, time.Since(start))

	f.logger.Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("fetched")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var reader io.Reader = resp.Body
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Message: "read body", Cause: err}
	}
	if f.maxBytes > 0 && int64(len(body)) > f.maxBytes {
		return nil, &FetchError{URL: rawURL, Message: fmt.Sprintf("body exceeds limit of %d bytes", f.maxBytes)}
	}

	if f.cache != nil {
		if err := f.cache.Set(key, body, f.cacheTTL); err != nil {
			f.logger.Warn().Err(err).Str("url", rawURL).Msg("cache write failed")
		} else {
			f.metrics.ObserveCache("set")
		}
	}

	return &FetchResult{
		HTML:       string(body),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

// Document fetches rawURL and parses it for querying
func (f *Fetcher) Document(ctx context.Context, rawURL string) (markup.Element, error) {
	result, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := markup.Parse(result.HTML)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}

// IsFetchError reports whether err is, or wraps, a *FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
