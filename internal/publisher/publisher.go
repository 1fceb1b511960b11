// Package publisher defines how publish failures are classified.
//
// Clients return *Error so the posting loop can pick a cooldown from Kind
// without parsing error text.
package publisher

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind is the failure class of a publish attempt.
type Kind int

const (
	KindOther Kind = iota
	KindRateLimited
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindForbidden:
		return "forbidden"
	default:
		return "other"
	}
}

// KindFromStatus maps an HTTP status code to a Kind.
func KindFromStatus(status int) Kind {
	switch status {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusForbidden:
		return KindForbidden
	default:
		return KindOther
	}
}

// Error is a failed platform call.
type Error struct {
	Op     string // "post" or "upload"
	Kind   Kind
	Status int    // HTTP status, 0 for transport errors
	Detail string // platform error text, truncated
	// ResetAt is the platform's rate window reset, when reported.
	ResetAt time.Time
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Detail != "":
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), e.Detail)
	case e.Status != 0:
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies err. Anything that is not an *Error is KindOther.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindOther
}
