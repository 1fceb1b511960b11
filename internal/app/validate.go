package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"newsbot/internal/config"
)

const defaultStatusSchedule = "@every 6h"

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// validateConfig rejects configs the app cannot run with. It runs before a
// config is committed, both at startup and on hot reload.
func validateConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if missing := cfg.Credentials.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", config.ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if _, err := mapFeedConfig(cfg); err != nil {
		return err
	}
	if _, _, err := mapImageConfig(cfg); err != nil {
		return err
	}
	if _, err := mapPublisherConfig(cfg); err != nil {
		return err
	}
	if _, err := mapCooldowns(cfg); err != nil {
		return err
	}
	if _, _, err := mapStorageConfig(cfg); err != nil {
		return err
	}
	if cfg.Logging.Telegram.Enabled && strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("logging.telegram.enabled requires telegram.token")
	}
	if cfg.Logging.Telegram.RatePerSec < 0 {
		return fmt.Errorf("logging.telegram.rate_per_sec must be >= 0")
	}
	if _, _, err := statusSchedule(cfg.Status); err != nil {
		return err
	}
	return nil
}

func statusSchedule(sc config.StatusConfig) (cron.Schedule, *time.Location, error) {
	spec := strings.TrimSpace(sc.Schedule)
	if spec == "" {
		spec = defaultStatusSchedule
	}
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return nil, nil, fmt.Errorf("status.schedule: invalid %q: %w", spec, err)
	}
	loc := time.Local
	if tz := strings.TrimSpace(sc.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, nil, fmt.Errorf("status.timezone: invalid %q: %w", tz, err)
		}
		loc = l
	}
	return sched, loc, nil
}
