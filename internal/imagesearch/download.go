package imagesearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultDownloadTimeout = 10 * time.Second
	DefaultMaxBytes        = 5 << 20
)

var ErrTooLarge = errors.New("imagesearch: image exceeds size limit")

type DownloaderConfig struct {
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// Downloader fetches image bytes into memory. Nothing touches disk.
type Downloader struct {
	cfg    DownloaderConfig
	client *http.Client
}

func NewDownloader(cfg DownloaderConfig, client *http.Client) *Downloader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultDownloadTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Downloader{cfg: cfg, client: client}
}

// Download returns the body of rawURL. Non-2xx, empty and oversized bodies are errors.
func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("imagesearch: build request: %w", err)
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imagesearch: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("imagesearch: download status %d", resp.StatusCode)
	}
	if resp.ContentLength > d.cfg.MaxBytes {
		return nil, ErrTooLarge
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, d.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("imagesearch: read body: %w", err)
	}
	if int64(len(b)) > d.cfg.MaxBytes {
		return nil, ErrTooLarge
	}
	if len(b) == 0 {
		return nil, errors.New("imagesearch: empty image body")
	}
	return b, nil
}
