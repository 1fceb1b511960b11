package config

// Config is the on-disk configuration. Every section is optional; zero values
// fall back to the defaults documented per field.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "75m").
type Config struct {
	Credentials CredentialsConfig `json:"credentials"`
	Feed        FeedConfig        `json:"feed"`
	Images      ImagesConfig      `json:"images"`
	Publisher   PublisherConfig   `json:"publisher"`
	Pacing      PacingConfig      `json:"pacing"`
	Logging     LoggingConfig     `json:"logging"`
	Telegram    TelegramConfig    `json:"telegram"`
	Status      StatusConfig      `json:"status"`
	Storage     *StorageConfig    `json:"storage,omitempty"`
}

// CredentialsConfig holds the four OAuth 1.0a strings for the publishing account.
//
// The environment variables API_KEY, API_SECRET, ACCESS_TOKEN and ACCESS_SECRET
// take precedence over values in the file.
type CredentialsConfig struct {
	APIKey       string `json:"api_key,omitempty"`
	APISecret    string `json:"api_secret,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
	AccessSecret string `json:"access_secret,omitempty"`
}

// FeedConfig controls the topic source.
//
// Defaults:
//   - url: Google News top stories (en-IN)
//   - max_items: 10
//   - timeout: "30s"
type FeedConfig struct {
	URL       string `json:"url,omitempty"`
	MaxItems  int    `json:"max_items,omitempty"`
	Timeout   string `json:"timeout,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// ImagesConfig controls best-effort illustration.
//
// Enabled is a pointer so an omitted section keeps images on.
type ImagesConfig struct {
	Enabled         *bool  `json:"enabled,omitempty"`
	SearchURL       string `json:"search_url,omitempty"`
	SearchTimeout   string `json:"search_timeout,omitempty"`   // default "15s"
	DownloadTimeout string `json:"download_timeout,omitempty"` // default "10s"
	MaxBytes        int64  `json:"max_bytes,omitempty"`        // default 5 MiB
	UserAgent       string `json:"user_agent,omitempty"`
}

// PublisherConfig controls the X API client.
type PublisherConfig struct {
	APIBase       string `json:"api_base,omitempty"`       // default "https://api.twitter.com"
	UploadBase    string `json:"upload_base,omitempty"`    // default "https://upload.twitter.com"
	Timeout       string `json:"timeout,omitempty"`        // default "30s"
	UploadTimeout string `json:"upload_timeout,omitempty"` // default "60s"
	RatePerSec    int    `json:"rate_per_sec,omitempty"`   // default 1
}

// PacingConfig overrides the loop's cooldowns. Empty fields keep the defaults:
//
//	empty: 2m, duplicate: 60s, success: 75m..150m,
//	rate_limited: 2h, forbidden: 5m, failure: 30m..60m
type PacingConfig struct {
	Empty       string `json:"empty,omitempty"`
	Duplicate   string `json:"duplicate,omitempty"`
	SuccessMin  string `json:"success_min,omitempty"`
	SuccessMax  string `json:"success_max,omitempty"`
	RateLimited string `json:"rate_limited,omitempty"`
	Forbidden   string `json:"forbidden,omitempty"`
	FailureMin  string `json:"failure_min,omitempty"`
	FailureMax  string `json:"failure_max,omitempty"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  *bool           `json:"console,omitempty"` // default true
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// TelegramConfig is the operator chat used by the log sink.
// When Token is empty no Telegram client is created.
type TelegramConfig struct {
	Token  string `json:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
}

// StatusConfig controls the periodic status report.
//
// Schedule accepts robfig/cron specs ("0 */6 * * *", "@every 6h", "@hourly").
type StatusConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"` // default "@every 6h"
	Timezone string `json:"timezone,omitempty"`
}

// StorageConfig controls the optional post audit trail.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./data/posts" }
type StorageConfig struct {
	Driver         string `json:"driver"`
	Path           string `json:"path,omitempty"`
	DSN            string `json:"dsn,omitempty"`             // postgres only
	BusyTimeout    string `json:"busy_timeout,omitempty"`    // sqlite only
	ConnectTimeout string `json:"connect_timeout,omitempty"` // bounds opening the store, default "15s"
}

// ImagesEnabled reports the effective images.enabled flag.
func (c *Config) ImagesEnabled() bool {
	return c.Images.Enabled == nil || *c.Images.Enabled
}

// ConsoleEnabled reports the effective logging.console flag.
func (c *Config) ConsoleEnabled() bool {
	return c.Logging.Console == nil || *c.Logging.Console
}
