// Package search looks up external suppliers on a web search engine. It
// scrapes the DuckDuckGo HTML endpoint, which needs no API key.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"procurement/internal/config"
	apierrors "procurement/internal/errors"
	"procurement/pkg/contracts/domain"
)

const (
	// DefaultBaseURL is the HTML search endpoint.
	DefaultBaseURL = "https://html.duckduckgo.com/html/"

	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 10 * time.Second

	// DefaultMinInterval is the minimum delay between two lookups.
	DefaultMinInterval = 2 * time.Second

	DefaultUserAgent = "Mozilla/5.0 (compatible; procurement-analyzer/1.0)"
)

// Lookup outcomes reported to the Recorder
const (
	OutcomeFound   = "found"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
	OutcomeLimited = "rate_limited"
)

// Recorder receives one outcome per lookup
type Recorder interface {
	RecordLookup(ctx context.Context, outcome string, duration time.Duration)
}

// Client is a rate-limited web search client. It never retries and reports
// every failure as no result.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	recorder   Recorder
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-lookup timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithMinInterval sets the minimum delay between lookups. Zero disables
// the delay; only tests should do that, NewFromConfig never does.
func WithMinInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets a logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) {
		c.recorder = r
	}
}

// NewClient creates a new search client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(DefaultMinInterval), 1),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewFromConfig builds the client from configuration. A disabled search
// yields a lookup that never finds anything.
func NewFromConfig(cfg config.SearchConfig, logger *slog.Logger, recorder Recorder) Lookup {
	if !cfg.Enabled {
		return Disabled{}
	}
	interval := cfg.MinInterval
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	return NewClient(
		WithBaseURL(cfg.BaseURL),
		WithUserAgent(cfg.UserAgent),
		WithTimeout(cfg.Timeout),
		WithMinInterval(interval),
		WithLogger(logger),
		WithRecorder(recorder),
	)
}

// Lookup is the capability the analysis engine consumes
type Lookup interface {
	Search(ctx context.Context, query string) (domain.SearchResult, bool)
	Enabled() bool
}

// Enabled implements Lookup
func (c *Client) Enabled() bool {
	return true
}

// Search returns the first organic result for query
func (c *Client) Search(ctx context.Context, query string) (domain.SearchResult, bool) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.WarnContext(ctx, "supplier lookup skipped", "query", query, "error", err)
		c.record(ctx, OutcomeLimited, start)
		return domain.SearchResult{}, false
	}

	res, err := c.search(ctx, query)
	if err != nil {
		attrs := []any{"query", query, "error", err}
		var appErr *apierrors.AppError
		if errors.As(err, &appErr) {
			attrs = append(attrs, "error_type", string(appErr.Type))
		}
		c.logger.WarnContext(ctx, "supplier lookup failed", attrs...)
		c.record(ctx, OutcomeError, start)
		return domain.SearchResult{}, false
	}
	if res.URL == "" {
		c.logger.DebugContext(ctx, "supplier lookup returned no results", "query", query)
		c.record(ctx, OutcomeEmpty, start)
		return domain.SearchResult{}, false
	}

	c.logger.DebugContext(ctx, "supplier lookup succeeded", "query", query, "url", res.URL)
	c.record(ctx, OutcomeFound, start)
	return res, true
}

func (c *Client) search(ctx context.Context, query string) (domain.SearchResult, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return domain.SearchResult{}, apierrors.NewConfigError("invalid search base url", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.SearchResult{}, apierrors.NewNetworkError("search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SearchResult{}, apierrors.NewNetworkError("search request failed",
			fmt.Errorf("unexpected status %d", resp.StatusCode)).
			WithContext("status", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.SearchResult{}, apierrors.NewParsingError("failed to parse search results", err)
	}

	return firstResult(doc), nil
}

// firstResult picks the first non-ad result link
func firstResult(doc *goquery.Document) domain.SearchResult {
	var res domain.SearchResult
	doc.Find("a.result__a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Closest(".result--ad").Length() > 0 {
			return true
		}
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		target := resolveRedirect(href)
		title := strings.Join(strings.Fields(s.Text()), " ")
		if target == "" || title == "" {
			return true
		}
		res = domain.SearchResult{Title: title, URL: target}
		return false
	})
	return res
}

// resolveRedirect unwraps the engine's /l/?uddg= redirect links
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func (c *Client) record(ctx context.Context, outcome string, start time.Time) {
	if c.recorder != nil {
		c.recorder.RecordLookup(ctx, outcome, time.Since(start))
	}
}

// Disabled is a Lookup that never finds anything
type Disabled struct{}

// Search implements Lookup
func (Disabled) Search(context.Context, string) (domain.SearchResult, bool) {
	return domain.SearchResult{}, false
}

// Enabled implements Lookup
func (Disabled) Enabled() bool {
	return false
}
