package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": JSON Lines file, no dependencies
//   - "sqlite": SQLite database file (build tag "sqlite")
//   - "postgres": PostgreSQL via DSN
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver         string
	Path           string
	DSN            string
	BusyTimeout    time.Duration // sqlite only; 0 means default
	ConnectTimeout time.Duration // bounds Open; 0 means DefaultConnectTimeout
}

const DefaultConnectTimeout = 15 * time.Second

// PostRecord is one cycle that reached the publish step.
type PostRecord struct {
	At      time.Time `json:"at"`
	CycleID string    `json:"cycle_id"`
	Title   string    `json:"title"`
	Outcome string    `json:"outcome"`
	PostID  string    `json:"post_id,omitempty"`
	MediaID string    `json:"media_id,omitempty"`
	Error   string    `json:"error,omitempty"`
	SleepMS int64     `json:"sleep_ms"`
}
