// Package provider fetches article link data from the MediaWiki API and
// normalizes it into models.Article records. It owns every network concern:
// rate limiting, retries on continuation, and caching. Provider failures
// never reach the layout engine; they surface to the presentation layer as
// user-visible errors.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/TFMV/wikiforce/metrics"
	"github.com/TFMV/wikiforce/models"
)

// ErrProviderFailure marks network or API-level failures.
var ErrProviderFailure = errors.New("provider failure")

// ErrNotFound marks a title the API does not know.
var ErrNotFound = errors.New("article not found")

// DefaultEndpoint is the English Wikipedia API.
const DefaultEndpoint = "https://en.wikipedia.org/w/api.php"

const defaultUserAgent = "wikiforce/1.0 (github.com/TFMV/wikiforce)"

// Client fetches articles from the MediaWiki API.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	cache     *Cache // nil disables caching
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint points the client at a different MediaWiki instance.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithUserAgent sets the User-Agent header, as the Wikimedia API policy asks.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithCache attaches a fetch cache.
func WithCache(cache *Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithRateLimit overrides the default request rate.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient creates a client with a 10 second request timeout and a polite
// default rate limit of 2 requests per second.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:  DefaultEndpoint,
		userAgent: defaultUserAgent,
		http:      &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(2), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseArticleRef turns a user-entered reference into an article title. It
// accepts a full article URL, a /wiki/ path, or a bare title; underscores
// become spaces and percent-encoding is decoded.
func ParseArticleRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty article reference", models.ErrMalformedInput)
	}

	title := ref
	if strings.Contains(ref, "://") || strings.HasPrefix(ref, "/wiki/") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: unparseable reference %q", models.ErrMalformedInput, ref)
		}
		path := u.Path
		idx := strings.Index(path, "/wiki/")
		if idx < 0 {
			return "", fmt.Errorf("%w: no /wiki/ path in %q", models.ErrMalformedInput, ref)
		}
		title = path[idx+len("/wiki/"):]
		if decoded, err := url.PathUnescape(title); err == nil {
			title = decoded
		}
	}

	title = strings.ReplaceAll(title, "_", " ")
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: empty article title in %q", models.ErrMalformedInput, ref)
	}
	return title, nil
}

// linksResponse is the subset of the MediaWiki query response we read. The
// client always requests formatversion=2, where pages come as an array and
// the missing flag is a real boolean (formatversion=1 encodes flags as
// empty strings).
type linksResponse struct {
	Continue struct {
		PlContinue string `json:"plcontinue"`
	} `json:"continue"`
	Query struct {
		Pages []struct {
			PageID  int64  `json:"pageid"`
			Missing bool   `json:"missing"`
			Title   string `json:"title"`
			Links   []struct {
				Title string `json:"title"`
			} `json:"links"`
		} `json:"pages"`
	} `json:"query"`
}

// Fetch returns the canonical title and outbound link titles for one
// article, following API continuation until the link list is complete.
// Results are served from and written to the cache when one is attached.
func (c *Client) Fetch(ctx context.Context, title string) (*models.Article, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty article title", models.ErrMalformedInput)
	}

	if c.cache != nil {
		if article, ok := c.cache.Get(ctx, title); ok {
			metrics.CacheHits.Inc()
			return article, nil
		}
		metrics.CacheMisses.Inc()
	}

	article := &models.Article{Title: title}
	cont := ""
	for {
		resp, err := c.queryLinks(ctx, title, cont)
		if err != nil {
			return nil, err
		}

		for _, page := range resp.Query.Pages {
			if page.Missing {
				return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
			}
			if page.Title != "" {
				article.Title = page.Title
			}
			for _, link := range page.Links {
				article.OutboundTitles = append(article.OutboundTitles, link.Title)
			}
		}

		if resp.Continue.PlContinue == "" {
			break
		}
		cont = resp.Continue.PlContinue
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, article); err != nil {
			// Cache writes are best-effort; the fetch itself succeeded.
			metrics.CacheWriteFailures.Inc()
		}
	}
	return article, nil
}

func (c *Client) queryLinks(ctx context.Context, title, plcontinue string) (*linksResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"prop":          {"links"},
		"pllimit":       {"max"},
		"plnamespace":   {"0"},
		"redirects":     {"1"},
		"titles":        {title},
	}
	if plcontinue != "" {
		params.Set("plcontinue", plcontinue)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	defer resp.Body.Close()
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: unexpected status %s", ErrProviderFailure, resp.Status)
	}

	var decoded linksResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: decoding response: %v", ErrProviderFailure, err)
	}
	metrics.FetchesTotal.WithLabelValues("ok").Inc()
	return &decoded, nil
}
