package poster

import (
	"fmt"
	"math/rand"
	"time"
)

// Range is an inclusive sleep window; picks are whole seconds.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Cooldowns maps cycle outcomes to the sleep that follows them.
type Cooldowns struct {
	Empty       time.Duration
	Duplicate   time.Duration
	Success     Range
	RateLimited time.Duration
	Forbidden   time.Duration
	Failure     Range
}

func DefaultCooldowns() Cooldowns {
	return Cooldowns{
		Empty:       2 * time.Minute,
		Duplicate:   60 * time.Second,
		Success:     Range{Min: 4500 * time.Second, Max: 9000 * time.Second},
		RateLimited: 7200 * time.Second,
		Forbidden:   300 * time.Second,
		Failure:     Range{Min: 1800 * time.Second, Max: 3600 * time.Second},
	}
}

func (c Cooldowns) Validate() error {
	fixed := []struct {
		name string
		d    time.Duration
	}{
		{"empty", c.Empty},
		{"duplicate", c.Duplicate},
		{"rate_limited", c.RateLimited},
		{"forbidden", c.Forbidden},
	}
	for _, f := range fixed {
		if f.d < 0 {
			return fmt.Errorf("%s: must be >= 0", f.name)
		}
	}
	if err := c.Success.validate("success"); err != nil {
		return err
	}
	return c.Failure.validate("failure")
}

func (r Range) validate(name string) error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("%s: must be >= 0", name)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%s: min %s > max %s", name, r.Min, r.Max)
	}
	return nil
}

// pick returns a uniform whole-second duration in [Min, Max].
func (r Range) pick(rng *rand.Rand) time.Duration {
	span := int64((r.Max - r.Min) / time.Second)
	if span <= 0 {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int63n(span+1))*time.Second
}

// For returns the sleep after outcome o.
func (c Cooldowns) For(o Outcome, rng *rand.Rand) time.Duration {
	switch o {
	case OutcomePosted:
		return c.Success.pick(rng)
	case OutcomeRateLimited:
		return c.RateLimited
	case OutcomeForbidden:
		return c.Forbidden
	case OutcomeEmpty:
		return c.Empty
	case OutcomeDuplicate:
		return c.Duplicate
	default:
		return c.Failure.pick(rng)
	}
}
