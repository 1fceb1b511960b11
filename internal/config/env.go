package config

import (
	"errors"
	"os"
	"strings"
)

// Credential environment variables.
const (
	EnvAPIKey       = "API_KEY"
	EnvAPISecret    = "API_SECRET"
	EnvAccessToken  = "ACCESS_TOKEN"
	EnvAccessSecret = "ACCESS_SECRET"
)

var ErrMissingCredentials = errors.New("missing credentials")

// ApplyEnv overlays non-empty credential variables from lookup onto cfg.
// Pass os.LookupEnv in production.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if cfg == nil {
		return
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.Credentials.APIKey, EnvAPIKey)
	set(&cfg.Credentials.APISecret, EnvAPISecret)
	set(&cfg.Credentials.AccessToken, EnvAccessToken)
	set(&cfg.Credentials.AccessSecret, EnvAccessSecret)
}

// Missing returns the names of credential variables that are still empty.
func (c CredentialsConfig) Missing() []string {
	var out []string
	if strings.TrimSpace(c.APIKey) == "" {
		out = append(out, EnvAPIKey)
	}
	if strings.TrimSpace(c.APISecret) == "" {
		out = append(out, EnvAPISecret)
	}
	if strings.TrimSpace(c.AccessToken) == "" {
		out = append(out, EnvAccessToken)
	}
	if strings.TrimSpace(c.AccessSecret) == "" {
		out = append(out, EnvAccessSecret)
	}
	return out
}
