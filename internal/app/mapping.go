package app

import (
	"fmt"
	"strings"
	"time"

	"newsbot/internal/config"
	"newsbot/internal/feed"
	"newsbot/internal/imagesearch"
	"newsbot/internal/poster"
	"newsbot/internal/publisher/xapi"
	"newsbot/internal/storage"
	logx "newsbot/pkg/logx"
)

func mapFeedConfig(cfg *config.Config) (feed.Config, error) {
	timeout, err := config.ParseDurationOrDefault("feed.timeout", cfg.Feed.Timeout, feed.DefaultTimeout)
	if err != nil {
		return feed.Config{}, err
	}
	if cfg.Feed.MaxItems < 0 {
		return feed.Config{}, fmt.Errorf("feed.max_items must be >= 0")
	}
	return feed.Config{
		URL:       strings.TrimSpace(cfg.Feed.URL),
		MaxItems:  cfg.Feed.MaxItems,
		Timeout:   timeout,
		UserAgent: cfg.Feed.UserAgent,
	}, nil
}

func mapImageConfig(cfg *config.Config) (imagesearch.FinderConfig, imagesearch.DownloaderConfig, error) {
	ic := cfg.Images
	search, err := config.ParseDurationOrDefault("images.search_timeout", ic.SearchTimeout, imagesearch.DefaultSearchTimeout)
	if err != nil {
		return imagesearch.FinderConfig{}, imagesearch.DownloaderConfig{}, err
	}
	download, err := config.ParseDurationOrDefault("images.download_timeout", ic.DownloadTimeout, imagesearch.DefaultDownloadTimeout)
	if err != nil {
		return imagesearch.FinderConfig{}, imagesearch.DownloaderConfig{}, err
	}
	if ic.MaxBytes < 0 {
		return imagesearch.FinderConfig{}, imagesearch.DownloaderConfig{}, fmt.Errorf("images.max_bytes must be >= 0")
	}
	return imagesearch.FinderConfig{
			SearchURL: strings.TrimSpace(ic.SearchURL),
			Timeout:   search,
			UserAgent: ic.UserAgent,
		}, imagesearch.DownloaderConfig{
			Timeout:   download,
			MaxBytes:  ic.MaxBytes,
			UserAgent: ic.UserAgent,
		}, nil
}

func mapPublisherConfig(cfg *config.Config) (xapi.Config, error) {
	pc := cfg.Publisher
	timeout, err := config.ParseDurationOrDefault("publisher.timeout", pc.Timeout, xapi.DefaultTimeout)
	if err != nil {
		return xapi.Config{}, err
	}
	upload, err := config.ParseDurationOrDefault("publisher.upload_timeout", pc.UploadTimeout, xapi.DefaultUploadTimeout)
	if err != nil {
		return xapi.Config{}, err
	}
	if pc.RatePerSec < 0 {
		return xapi.Config{}, fmt.Errorf("publisher.rate_per_sec must be >= 0")
	}
	return xapi.Config{
		Credentials: xapi.Credentials{
			APIKey:       cfg.Credentials.APIKey,
			APISecret:    cfg.Credentials.APISecret,
			AccessToken:  cfg.Credentials.AccessToken,
			AccessSecret: cfg.Credentials.AccessSecret,
		},
		APIBase:       strings.TrimSpace(pc.APIBase),
		UploadBase:    strings.TrimSpace(pc.UploadBase),
		Timeout:       timeout,
		UploadTimeout: upload,
		RatePerSec:    pc.RatePerSec,
	}, nil
}

func mapCooldowns(cfg *config.Config) (poster.Cooldowns, error) {
	p := cfg.Pacing
	def := poster.DefaultCooldowns()
	out := def
	var err error

	if out.Empty, err = config.ParseDurationOrDefault("pacing.empty", p.Empty, def.Empty); err != nil {
		return poster.Cooldowns{}, err
	}
	if out.Duplicate, err = config.ParseDurationOrDefault("pacing.duplicate", p.Duplicate, def.Duplicate); err != nil {
		return poster.Cooldowns{}, err
	}
	if out.RateLimited, err = config.ParseDurationOrDefault("pacing.rate_limited", p.RateLimited, def.RateLimited); err != nil {
		return poster.Cooldowns{}, err
	}
	if out.Forbidden, err = config.ParseDurationOrDefault("pacing.forbidden", p.Forbidden, def.Forbidden); err != nil {
		return poster.Cooldowns{}, err
	}
	if out.Success.Min, out.Success.Max, err = config.ParseRange("pacing.success", p.SuccessMin, p.SuccessMax, def.Success.Min, def.Success.Max); err != nil {
		return poster.Cooldowns{}, err
	}
	if out.Failure.Min, out.Failure.Max, err = config.ParseRange("pacing.failure", p.FailureMin, p.FailureMax, def.Failure.Min, def.Failure.Max); err != nil {
		return poster.Cooldowns{}, err
	}
	if err := out.Validate(); err != nil {
		return poster.Cooldowns{}, fmt.Errorf("pacing.%w", err)
	}
	return out, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	if !storage.ValidDriver(driver) {
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
	path := strings.TrimSpace(sc.Path)
	connect, err := config.ParseDurationOrDefault("storage.connect_timeout", sc.ConnectTimeout, storage.DefaultConnectTimeout)
	if err != nil {
		return storage.Config{}, false, err
	}

	switch driver {
	case "file":
		return storage.Config{Driver: "file", Path: path, ConnectTimeout: connect}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy, ConnectTimeout: connect}, true, nil
	default:
		dsn := strings.TrimSpace(sc.DSN)
		if dsn == "" {
			return storage.Config{}, false, fmt.Errorf("storage.dsn is required when storage.driver=%s", driver)
		}
		return storage.Config{Driver: "postgres", DSN: dsn, ConnectTimeout: connect}, true, nil
	}
}

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ThreadID:   cfg.Logging.Telegram.ThreadID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}
