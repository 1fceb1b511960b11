package config

import (
	"fmt"
	"strings"
	"time"
)

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// ParseRange parses a [min, max] pair where each side falls back to its
// default independently. It rejects min > max.
func ParseRange(path, minRaw, maxRaw string, defMin, defMax time.Duration) (time.Duration, time.Duration, error) {
	lo, err := ParseDurationOrDefault(path+"_min", minRaw, defMin)
	if err != nil {
		return 0, 0, err
	}
	hi, err := ParseDurationOrDefault(path+"_max", maxRaw, defMax)
	if err != nil {
		return 0, 0, err
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("%s: min %s is greater than max %s", path, lo, hi)
	}
	return lo, hi, nil
}
