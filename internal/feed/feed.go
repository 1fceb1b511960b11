// Package feed pulls candidate topics from an RSS/Atom news feed.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	DefaultURL      = "https://news.google.com/rss?hl=en-IN&gl=IN&ceid=IN:en"
	DefaultMaxItems = 10
	DefaultTimeout  = 30 * time.Second

	defaultUserAgent = "Mozilla/5.0 (compatible; newsbot/1.0)"
	maxFeedBytes     = 4 << 20
)

// Topic is one news item considered as post material.
type Topic struct {
	Title       string
	Description string
}

type Config struct {
	URL       string
	MaxItems  int
	Timeout   time.Duration
	UserAgent string
}

// Source fetches topics over HTTP.
type Source struct {
	cfg    Config
	client *http.Client
	parser *gofeed.Parser
}

type Option func(*Source)

// WithHTTPClient replaces the default client (tests, proxies).
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

func NewSource(cfg Config, opts ...Option) *Source {
	if strings.TrimSpace(cfg.URL) == "" {
		cfg.URL = DefaultURL
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	s := &Source{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		parser: gofeed.NewParser(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Fetch returns up to MaxItems topics in feed order. Items with an empty
// title or description are skipped. The raw strings may still contain markup.
func (s *Source) Fetch(ctx context.Context) ([]Topic, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: build request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("feed: unexpected status %d", resp.StatusCode)
	}

	parsed, err := s.parser.Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("feed: parse: %w", err)
	}

	topics := make([]Topic, 0, min(len(parsed.Items), s.cfg.MaxItems))
	for _, it := range parsed.Items {
		if it == nil || strings.TrimSpace(it.Title) == "" || strings.TrimSpace(it.Description) == "" {
			continue
		}
		topics = append(topics, Topic{Title: it.Title, Description: it.Description})
		if len(topics) == s.cfg.MaxItems {
			break
		}
	}
	return topics, nil
}
