package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func noEnv(string) (string, bool) { return "", false }

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadJSONAndYAMLAgree(t *testing.T) {
	t.Parallel()
	jsonPath := writeFile(t, "bot.json", `{
		"feed": {"url": "https://example.com/rss", "max_items": 5},
		"pacing": {"rate_limited": "3h"},
		"logging": {"level": "debug"}
	}`)
	yamlPath := writeFile(t, "bot.yaml", `
feed:
  url: https://example.com/rss
  max_items: 5
pacing:
  rate_limited: 3h
logging:
  level: debug
`)

	var got []*Config
	for _, p := range []string{jsonPath, yamlPath} {
		m := NewConfigManager(p)
		m.SetEnvLookup(noEnv)
		cfg, err := m.Load()
		if err != nil {
			t.Fatalf("Load(%s): %v", p, err)
		}
		got = append(got, cfg)
	}
	if !reflect.DeepEqual(got[0], got[1]) {
		t.Fatalf("json and yaml differ:\n%+v\n%+v", got[0], got[1])
	}
	if got[0].Feed.MaxItems != 5 || got[0].Pacing.RateLimited != "3h" {
		t.Fatalf("unexpected config %+v", got[0])
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	p := writeFile(t, "bot.json", `{"feed": {"urll": "typo"}}`)
	m := NewConfigManager(p)
	m.SetEnvLookup(noEnv)
	if _, err := m.Load(); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	t.Parallel()
	p := writeFile(t, "bot.json", `{} {}`)
	m := NewConfigManager(p)
	m.SetEnvLookup(noEnv)
	if _, err := m.Load(); err == nil {
		t.Fatal("expected trailing data error")
	}
}

func TestLoadWithoutFileUsesEnv(t *testing.T) {
	t.Parallel()
	env := map[string]string{
		EnvAPIKey:       "k",
		EnvAPISecret:    "s",
		EnvAccessToken:  "t",
		EnvAccessSecret: "ts",
	}
	m := NewConfigManager("")
	m.SetEnvLookup(func(k string) (string, bool) { v, ok := env[k]; return v, ok })
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if missing := cfg.Credentials.Missing(); len(missing) != 0 {
		t.Fatalf("Missing() = %v, want none", missing)
	}
	if !cfg.ImagesEnabled() || !cfg.ConsoleEnabled() {
		t.Fatal("images and console should default to enabled")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Parallel()
	p := writeFile(t, "bot.json", `{"credentials": {"api_key": "file-key", "api_secret": "file-secret"}}`)
	m := NewConfigManager(p)
	m.SetEnvLookup(func(k string) (string, bool) {
		if k == EnvAPIKey {
			return "env-key", true
		}
		return "", false
	})
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Credentials.APIKey != "env-key" {
		t.Fatalf("APIKey = %q, want env-key", cfg.Credentials.APIKey)
	}
	if cfg.Credentials.APISecret != "file-secret" {
		t.Fatalf("APISecret = %q, want file-secret", cfg.Credentials.APISecret)
	}
	want := []string{EnvAccessToken, EnvAccessSecret}
	if got := cfg.Credentials.Missing(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Missing() = %v, want %v", got, want)
	}
}

func TestValidatorRejectsOnLoad(t *testing.T) {
	t.Parallel()
	m := NewConfigManager("")
	m.SetEnvLookup(noEnv)
	m.SetValidator(func(_ context.Context, cfg *Config) error {
		return ErrMissingCredentials
	})
	if _, err := m.Load(); err == nil {
		t.Fatal("expected validator error")
	}
	if m.Get() != nil {
		t.Fatal("rejected config must not be committed")
	}
}

func TestParseRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		lo, hi   string
		wantLo   time.Duration
		wantHi   time.Duration
		wantErrs string
	}{
		{name: "defaults", wantLo: time.Minute, wantHi: time.Hour},
		{name: "override min", lo: "10m", wantLo: 10 * time.Minute, wantHi: time.Hour},
		{name: "inverted", lo: "2h", hi: "1h", wantErrs: "greater than max"},
		{name: "bad duration", hi: "soon", wantErrs: "invalid duration"},
		{name: "negative", lo: "-1m", wantErrs: ">= 0"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			lo, hi, err := ParseRange("pacing.success", tt.lo, tt.hi, time.Minute, time.Hour)
			if tt.wantErrs != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErrs) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErrs)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange: %v", err)
			}
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Fatalf("got [%s, %s], want [%s, %s]", lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestChangedSections(t *testing.T) {
	t.Parallel()
	a := &Config{Logging: LoggingConfig{Level: "info"}}
	b := &Config{Logging: LoggingConfig{Level: "debug"}, Pacing: PacingConfig{Empty: "3m"}}
	got := ChangedSections(a, b)
	want := []string{"pacing", "logging"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ChangedSections = %v, want %v", got, want)
	}
	if !HotReloadable("logging") || HotReloadable("pacing") {
		t.Fatal("only logging is hot reloadable")
	}
}

func feedConfig(maxItems int) string {
	return fmt.Sprintf(`{"feed": {"max_items": %d}}`, maxItems)
}

// waitConfig returns the next published config or fails after timeout.
func waitConfig(t *testing.T, ch <-chan *Config, timeout time.Duration) *Config {
	t.Helper()
	select {
	case cfg := <-ch:
		return cfg
	case <-time.After(timeout):
		t.Fatal("no config published")
		return nil
	}
}

func TestWatchPublishesValidChanges(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "bot.json", feedConfig(1))

	m := NewConfigManager(path)
	m.SetEnvLookup(noEnv)
	m.SetValidator(func(_ context.Context, cfg *Config) error {
		if cfg.Feed.MaxItems < 0 {
			return errors.New("feed.max_items must be >= 0")
		}
		return nil
	})
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sub := m.Subscribe(4)
	defer m.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	write := func(body string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("rewrite: %v", err)
		}
	}

	// The watcher starts asynchronously; keep rewriting until it notices.
	var got *Config
	deadline := time.Now().Add(10 * time.Second)
	for got == nil {
		if time.Now().After(deadline) {
			t.Fatal("watcher never published the change")
		}
		write(feedConfig(2))
		select {
		case got = <-sub:
		case <-time.After(500 * time.Millisecond):
		}
	}
	if got.Feed.MaxItems != 2 || m.Get().Feed.MaxItems != 2 {
		t.Fatalf("published max_items = %d, committed = %d", got.Feed.MaxItems, m.Get().Feed.MaxItems)
	}

	// Invalid content is rejected and the committed config stays.
	write(feedConfig(-1))
	time.Sleep(time.Second)
	if m.Get().Feed.MaxItems != 2 {
		t.Fatalf("rejected config committed: %+v", m.Get().Feed)
	}

	// Same content as committed, different formatting: not republished.
	write("{\n  \"feed\": {\"max_items\": 2}\n}\n")
	time.Sleep(time.Second)

	write(feedConfig(3))
	next := waitConfig(t, sub, 10*time.Second)
	if next.Feed.MaxItems != 3 {
		t.Fatalf("next published max_items = %d, want 3 (rejected or unchanged config leaked)", next.Feed.MaxItems)
	}
}

func TestTelegramPollTimeoutIsNotAKey(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "bot.json", `{"telegram": {"token": "123:x", "poll_timeout": "10s"}}`)
	m := NewConfigManager(path)
	m.SetEnvLookup(noEnv)
	if _, err := m.Load(); err == nil || !strings.Contains(err.Error(), "poll_timeout") {
		t.Fatalf("err = %v, want unknown field poll_timeout", err)
	}
}
