package poster

import (
	"sync/atomic"
	"time"
)

// Stats counts cycle outcomes. Safe for concurrent readers.
type Stats struct {
	cycles      atomic.Uint64
	posted      atomic.Uint64
	duplicates  atomic.Uint64
	empties     atomic.Uint64
	rateLimited atomic.Uint64
	forbidden   atomic.Uint64
	failed      atomic.Uint64
	images      atomic.Uint64
	lastPostAt  atomic.Int64
}

type StatsSnapshot struct {
	Cycles      uint64
	Posted      uint64
	Duplicates  uint64
	Empties     uint64
	RateLimited uint64
	Forbidden   uint64
	Failed      uint64
	Images      uint64
	LastPostAt  time.Time
}

func (s *Stats) record(r Result, at time.Time) {
	s.cycles.Add(1)
	switch r.Outcome {
	case OutcomePosted:
		s.posted.Add(1)
		s.lastPostAt.Store(at.UnixNano())
		if r.MediaID != "" {
			s.images.Add(1)
		}
	case OutcomeDuplicate:
		s.duplicates.Add(1)
	case OutcomeEmpty:
		s.empties.Add(1)
	case OutcomeRateLimited:
		s.rateLimited.Add(1)
	case OutcomeForbidden:
		s.forbidden.Add(1)
	default:
		s.failed.Add(1)
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	out := StatsSnapshot{
		Cycles:      s.cycles.Load(),
		Posted:      s.posted.Load(),
		Duplicates:  s.duplicates.Load(),
		Empties:     s.empties.Load(),
		RateLimited: s.rateLimited.Load(),
		Forbidden:   s.forbidden.Load(),
		Failed:      s.failed.Load(),
		Images:      s.images.Load(),
	}
	if ns := s.lastPostAt.Load(); ns != 0 {
		out.LastPostAt = time.Unix(0, ns)
	}
	return out
}
