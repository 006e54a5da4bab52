// Package metadata scrapes title, description and favicon for a bookmarked URL.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"linkvault/internal/cache"
	"linkvault/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTitleLength       = 500
	maxDescriptionLength = 2000
	maxFaviconLength     = 2048
	maxBodyBytes         = 1 << 20

	// DefaultUserAgent is sent when none is configured.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// ErrUnsupportedScheme is returned for URLs that are not http or https.
var ErrUnsupportedScheme = errors.New("metadata: unsupported url scheme")

// Result is the scraped metadata for one URL.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Favicon     string `json:"favicon"`
}

// Fetcher returns metadata for a URL. Implementations never fail: on any
// error they return Fallback(url).
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) Result
}

// Options configures an HTTPFetcher.
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	RatePerHost float64
	Client      *http.Client
}

// HTTPFetcher fetches pages over HTTP and caches successful results in Redis.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	limiter   *hostLimiter
}

// NewHTTPFetcher creates a fetcher. Zero options fall back to a 10 second
// timeout, the default user agent and no per-host pacing.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPFetcher{
		client:    client,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		limiter:   newHostLimiter(opts.RatePerHost, 1),
	}
}

// Fetch returns scraped metadata, a cached copy, or the fallback.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) Result {
	span, ctx := observability.NewSpan(ctx, "metadata.Fetch")
	defer span.End()
	span.AddAttributes(attribute.String("url", rawURL))

	var cached Result
	if found, err := cache.GetJSON(ctx, cache.MetadataKey(rawURL), &cached); err == nil && found {
		observability.MetadataFetches.WithLabelValues("cached").Inc()
		return cached
	}

	start := time.Now()
	res, err := f.fetch(ctx, rawURL)
	observability.MetadataFetchLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetError(err)
		observability.MetadataFetches.WithLabelValues("fallback").Inc()
		observability.GlobalLogger.WarnContext(ctx, "metadata fetch failed, using fallback",
			slog.String("url", rawURL),
			slog.String("error", err.Error()),
		)
		return Fallback(rawURL)
	}

	observability.MetadataFetches.WithLabelValues("ok").Inc()
	if err := cache.SetJSON(ctx, cache.MetadataKey(rawURL), res, cache.MetadataTTL); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "metadata cache write failed", slog.String("error", err.Error()))
	}
	return res
}

func (f *HTTPFetcher) fetch(ctx context.Context, rawURL string) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Result{}, ErrUnsupportedScheme
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return Result{}, fmt.Errorf("waiting for host slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	p, err := parsePage(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("parsing html: %w", err)
	}

	// Relative favicons resolve against the final URL after redirects.
	base := u
	if resp.Request != nil && resp.Request.URL != nil {
		base = resp.Request.URL
	}
	return p.result(base), nil
}

// Fallback is the deterministic result used when a page cannot be scraped:
// the host name as title, no description and /favicon.ico on the same origin.
func Fallback(rawURL string) Result {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return Result{}
	}
	return Result{
		Title:       truncate(u.Hostname(), maxTitleLength),
		Description: "",
		Favicon:     defaultFavicon(u),
	}
}

func defaultFavicon(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host + "/favicon.ico"
}

// Static is a Fetcher that never touches the network. It is used when
// metadata fetching is switched off.
type Static struct{}

// Fetch returns Fallback(rawURL).
func (Static) Fetch(_ context.Context, rawURL string) Result {
	observability.MetadataFetches.WithLabelValues("skipped").Inc()
	return Fallback(rawURL)
}
