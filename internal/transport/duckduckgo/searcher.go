// Package duckduckgo searches the web through the DuckDuckGo HTML endpoint.
package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/kailas-cloud/studyplan/internal/domain"
	"github.com/kailas-cloud/studyplan/internal/domain/search/result"
	"github.com/kailas-cloud/studyplan/internal/metrics"
)

const (
	provider = "duckduckgo"

	// DefaultBaseURL is the script-free results page.
	DefaultBaseURL = "https://html.duckduckgo.com/html/"
	// DefaultUserAgent is sent when none is configured; the endpoint rejects empty agents.
	DefaultUserAgent = "Mozilla/5.0 (compatible; studyplan/1.0)"

	maxBodyBytes = 2 << 20
)

// Compile-time check: Searcher implements domain.Searcher.
var _ domain.Searcher = (*Searcher)(nil)

// Config holds the search client settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Client    *http.Client // optional, overrides Timeout
	Logger    *zap.Logger
}

// Searcher implements domain.Searcher.
type Searcher struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

// New creates a DuckDuckGo searcher.
func New(cfg Config) *Searcher {
	s := &Searcher{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    cfg.Client,
		logger:    cfg.Logger,
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.userAgent == "" {
		s.userAgent = DefaultUserAgent
	}
	if s.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		s.client = &http.Client{Timeout: timeout}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Search returns at most maxResults organic results for query.
// Results without a title or URL are skipped. A blank query yields no results.
func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]result.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = domain.DefaultSearchResults
	}

	start := time.Now()
	results, err := s.search(ctx, query, maxResults)
	metrics.SearchRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(provider, "error").Inc()
		return nil, fmt.Errorf("duckduckgo %q: %w: %w", query, domain.ErrSearchFailed, err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(provider, "success").Inc()
	metrics.SearchResults.Observe(float64(len(results)))

	s.logger.Debug("web search",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)
	return results, nil
}

func (s *Searcher) search(ctx context.Context, query string, maxResults int) ([]result.Result, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	return parseResults(body, maxResults)
}

// parseResults extracts organic results from a results page, skipping ads.
func parseResults(r io.Reader, maxResults int) ([]result.Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []result.Result
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}
		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		res := result.New(title, resolveLink(href), snippet)
		if !res.Valid() {
			return true
		}
		out = append(out, res)
		return len(out) < maxResults
	})
	return out, nil
}

// resolveLink unwraps DuckDuckGo redirect links ("/l/?uddg=<target>").
func resolveLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
