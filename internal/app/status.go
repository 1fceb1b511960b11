package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"newsbot/internal/config"
	"newsbot/internal/poster"
	"newsbot/internal/transport"
	logx "newsbot/pkg/logx"
)

// statusReporter periodically logs loop counters and, when an operator chat
// is configured, sends them there too.
type statusReporter struct {
	c       *cron.Cron
	loop    *poster.Loop
	log     logx.Logger
	sender  transport.Sender
	target  transport.ChatTarget
	started time.Time
}

func newStatusReporter(sc config.StatusConfig, loop *poster.Loop, log logx.Logger, sender transport.Sender, target transport.ChatTarget) (*statusReporter, error) {
	sched, loc, err := statusSchedule(sc)
	if err != nil {
		return nil, err
	}
	r := &statusReporter{
		c:       cron.New(cron.WithParser(cronParser), cron.WithLocation(loc)),
		loop:    loop,
		log:     log,
		sender:  sender,
		target:  target,
		started: time.Now(),
	}
	r.c.Schedule(sched, cron.FuncJob(func() { r.report(context.Background()) }))
	return r, nil
}

func (r *statusReporter) Start() {
	r.c.Start()
	r.log.Info("status reporter started", logx.String("tz", r.c.Location().String()))
}

// Stop stops the schedule and waits for a running report, bounded by ctx.
func (r *statusReporter) Stop(ctx context.Context) error {
	done := r.c.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *statusReporter) report(ctx context.Context) {
	snap := r.loop.Stats().Snapshot()
	seen := r.loop.SeenTitles().Len()
	uptime := time.Since(r.started).Truncate(time.Second)

	r.log.Info("status",
		logx.Duration("uptime", uptime),
		logx.Uint64("cycles", snap.Cycles),
		logx.Uint64("posted", snap.Posted),
		logx.Uint64("duplicates", snap.Duplicates),
		logx.Uint64("empty", snap.Empties),
		logx.Uint64("rate_limited", snap.RateLimited),
		logx.Uint64("forbidden", snap.Forbidden),
		logx.Uint64("failed", snap.Failed),
		logx.Uint64("images", snap.Images),
		logx.Int("seen_titles", seen),
	)

	if r.sender == nil || r.target.ChatID == 0 {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if _, err := r.sender.SendText(sctx, r.target, formatStatus(snap, seen, uptime, time.Now()), &transport.SendOptions{DisablePreview: true}); err != nil {
		r.log.Warn("status send failed", logx.Err(err))
	}
}

func formatStatus(snap poster.StatsSnapshot, seen int, uptime time.Duration, now time.Time) string {
	var b strings.Builder
	b.WriteString("newsbot status\n")
	fmt.Fprintf(&b, "- uptime: %s\n", uptime)
	fmt.Fprintf(&b, "- cycles: %d\n", snap.Cycles)
	fmt.Fprintf(&b, "- posted: %d (with image: %d)\n", snap.Posted, snap.Images)
	fmt.Fprintf(&b, "- skipped: %d duplicate, %d empty\n", snap.Duplicates, snap.Empties)
	fmt.Fprintf(&b, "- failures: %d rate limited, %d forbidden, %d other\n", snap.RateLimited, snap.Forbidden, snap.Failed)
	fmt.Fprintf(&b, "- seen titles: %d\n", seen)
	if snap.LastPostAt.IsZero() {
		b.WriteString("- last post: never")
	} else {
		fmt.Fprintf(&b, "- last post: %s ago", now.Sub(snap.LastPostAt).Truncate(time.Second))
	}
	return b.String()
}
