// Package imagesearch finds and downloads an illustrative image for a topic.
//
// Both steps are best-effort; callers treat any error as "no image".
package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	DefaultSearchURL     = "https://www.bing.com/images/search"
	DefaultSearchTimeout = 15 * time.Second

	defaultUserAgent = "Mozilla/5.0"
	maxPageBytes     = 2 << 20
)

// ErrNoImage is returned when the results page holds no usable image URL.
var ErrNoImage = errors.New("imagesearch: no image found")

type FinderConfig struct {
	SearchURL string
	Timeout   time.Duration
	UserAgent string
}

// Finder scrapes a Bing image results page. Each result anchor carries a JSON
// "m" attribute whose "murl" key is the full-size image URL.
type Finder struct {
	cfg    FinderConfig
	client *http.Client
}

func NewFinder(cfg FinderConfig, client *http.Client) *Finder {
	if strings.TrimSpace(cfg.SearchURL) == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSearchTimeout
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Finder{cfg: cfg, client: client}
}

// FindImageURL returns the first image URL for query.
func (f *Finder) FindImageURL(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrNoImage
	}
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(f.cfg.SearchURL)
	if err != nil {
		return "", fmt.Errorf("imagesearch: search url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("form", "HDRSC2")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("imagesearch: build request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imagesearch: search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("imagesearch: search status %d", resp.StatusCode)
	}

	murl, err := firstMediaURL(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return murl, nil
}

type resultMeta struct {
	MURL string `json:"murl"`
}

// firstMediaURL walks the page tokens and returns the first absolute http(s)
// "murl" found in an element's "m" attribute.
func firstMediaURL(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("imagesearch: parse: %w", err)
			}
			return "", ErrNoImage
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) != "m" {
					continue
				}
				if u := mediaURL(val); u != "" {
					return u, nil
				}
			}
		}
	}
}

func mediaURL(attr []byte) string {
	var meta resultMeta
	if err := json.Unmarshal(attr, &meta); err != nil {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(meta.MURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
