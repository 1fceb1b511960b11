// Package poster runs the fetch, compose, illustrate, publish and sleep cycle.
package poster

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"newsbot/internal/compose"
	"newsbot/internal/feed"
	"newsbot/internal/publisher"
	"newsbot/internal/storage"
	"newsbot/pkg/logx"
)

type ContentSource interface {
	Fetch(ctx context.Context) ([]feed.Topic, error)
}

type ImageFinder interface {
	FindImageURL(ctx context.Context, query string) (string, error)
}

type ImageFetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

type Publisher interface {
	UploadMedia(ctx context.Context, data []byte) (string, error)
	Post(ctx context.Context, text string, mediaIDs []string) (string, error)
}

// Recorder receives one record per cycle that reached the publish step.
type Recorder interface {
	AppendPost(ctx context.Context, rec storage.PostRecord) error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Outcome string

const (
	OutcomePosted      Outcome = "posted"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeForbidden   Outcome = "forbidden"
	OutcomeFailed      Outcome = "failed"
	OutcomeEmpty       Outcome = "empty"
	OutcomeDuplicate   Outcome = "duplicate"
)

// Result describes one finished cycle. Outcome is empty when ctx ended the
// cycle before anything was published; such cycles are neither counted nor recorded.
type Result struct {
	CycleID string
	Outcome Outcome
	Sleep   time.Duration
	Title   string
	PostID  string
	MediaID string
	Err     error
}

type Loop struct {
	src       ContentSource
	pub       Publisher
	finder    ImageFinder
	fetcher   ImageFetcher
	composer  *compose.Composer
	seen      *compose.SeenTitles
	recorder  Recorder
	cooldowns Cooldowns
	sleep     Sleeper
	log       logx.Logger
	now       func() time.Time
	stats     *Stats
	rng       *rand.Rand // loop goroutine only
}

type Option func(*Loop)

// WithImages enables best-effort illustration of posts.
func WithImages(finder ImageFinder, fetcher ImageFetcher) Option {
	return func(l *Loop) {
		l.finder = finder
		l.fetcher = fetcher
	}
}

func WithComposer(c *compose.Composer) Option {
	return func(l *Loop) {
		if c != nil {
			l.composer = c
		}
	}
}

func WithSeenTitles(s *compose.SeenTitles) Option {
	return func(l *Loop) {
		if s != nil {
			l.seen = s
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(l *Loop) { l.recorder = r }
}

func WithCooldowns(c Cooldowns) Option {
	return func(l *Loop) { l.cooldowns = c }
}

func WithRand(r *rand.Rand) Option {
	return func(l *Loop) {
		if r != nil {
			l.rng = r
		}
	}
}

func WithSleeper(s Sleeper) Option {
	return func(l *Loop) {
		if s != nil {
			l.sleep = s
		}
	}
}

func WithLogger(log logx.Logger) Option {
	return func(l *Loop) { l.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(l *Loop) {
		if now != nil {
			l.now = now
		}
	}
}

func New(src ContentSource, pub Publisher, opts ...Option) *Loop {
	l := &Loop{
		src:       src,
		pub:       pub,
		composer:  compose.New(),
		seen:      compose.NewSeenTitles(),
		cooldowns: DefaultCooldowns(),
		sleep:     SleepContext,
		log:       logx.Nop(),
		now:       time.Now,
		stats:     &Stats{},
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Loop) Stats() *Stats { return l.stats }
func (l *Loop) SeenTitles() *compose.SeenTitles { return l.seen }

// Run repeats cycles until ctx is done and then returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("posting loop started")
	for {
		if err := ctx.Err(); err != nil {
			l.log.Info("posting loop stopped", logx.Err(err))
			return err
		}
		res := l.RunCycle(ctx)
		if err := l.sleep(ctx, res.Sleep); err != nil {
			l.log.Info("posting loop stopped", logx.Err(err))
			return err
		}
	}
}

// RunCycle runs exactly one cycle and returns its outcome and the chosen sleep.
// Errors never escape; they are folded into the outcome.
func (l *Loop) RunCycle(ctx context.Context) Result {
	res := Result{CycleID: uuid.NewString()}
	log := l.log.With(logx.String("cycle", res.CycleID))
	started := l.now()

	l.cycle(ctx, log, &res)

	if res.Outcome != OutcomePosted && ctx.Err() != nil {
		log.Info("cycle interrupted", logx.Err(ctx.Err()))
		return Result{CycleID: res.CycleID, Title: res.Title, Err: ctx.Err()}
	}

	res.Sleep = l.cooldowns.For(res.Outcome, l.rng)
	l.stats.record(res, l.now())

	fields := []logx.Field{
		logx.String("outcome", string(res.Outcome)),
		logx.Duration("sleep", res.Sleep),
		logx.Duration("took", l.now().Sub(started)),
	}
	if res.Err != nil {
		fields = append(fields, logx.Err(res.Err))
	}
	switch res.Outcome {
	case OutcomePosted:
		log.Info("cycle done", append(fields, logx.String("post_id", res.PostID), logx.Bool("image", res.MediaID != ""))...)
	case OutcomeEmpty, OutcomeDuplicate:
		log.Info("cycle done", fields...)
	default:
		log.Warn("cycle done", fields...)
	}

	if l.recorder != nil && res.Title != "" && res.Outcome != OutcomeDuplicate {
		l.recordAttempt(ctx, log, res, started)
	}
	return res
}

func (l *Loop) cycle(ctx context.Context, log logx.Logger, res *Result) {
	topics, err := l.src.Fetch(ctx)
	if err != nil {
		log.Warn("fetch topics failed", logx.Err(err))
		res.Outcome = OutcomeEmpty
		return
	}
	if len(topics) == 0 {
		log.Info("no topics available")
		res.Outcome = OutcomeEmpty
		return
	}

	topic := topics[l.rng.Intn(len(topics))]
	res.Title = compose.StripMarkup(topic.Title)

	draft, ok := l.composer.Compose(topic, l.seen)
	if !ok {
		log.Debug("topic already posted", logx.String("title", res.Title))
		res.Outcome = OutcomeDuplicate
		return
	}

	var mediaIDs []string
	if mediaID := l.illustrate(ctx, log, res.Title); mediaID != "" {
		res.MediaID = mediaID
		mediaIDs = []string{mediaID}
	}

	postID, err := l.pub.Post(ctx, draft, mediaIDs)
	if err != nil {
		res.Err = err
		switch publisher.KindOf(err) {
		case publisher.KindRateLimited:
			res.Outcome = OutcomeRateLimited
		case publisher.KindForbidden:
			res.Outcome = OutcomeForbidden
		default:
			res.Outcome = OutcomeFailed
		}
		return
	}
	res.PostID = postID
	res.Outcome = OutcomePosted
}

// illustrate finds, downloads and uploads an image for query. Any failure
// yields "" and the post goes out as text only.
func (l *Loop) illustrate(ctx context.Context, log logx.Logger, query string) string {
	if l.finder == nil || l.fetcher == nil {
		return ""
	}
	url, err := l.finder.FindImageURL(ctx, query)
	if err != nil {
		log.Debug("image search failed", logx.Err(err))
		return ""
	}
	data, err := l.fetcher.Download(ctx, url)
	if err != nil {
		log.Warn("image download failed", logx.String("url", url), logx.Err(err))
		return ""
	}
	mediaID, err := l.pub.UploadMedia(ctx, data)
	if err != nil {
		log.Warn("media upload failed", logx.Int("bytes", len(data)), logx.Err(err))
		return ""
	}
	return mediaID
}

func (l *Loop) recordAttempt(ctx context.Context, log logx.Logger, res Result, at time.Time) {
	rec := storage.PostRecord{
		At:      at.UTC(),
		CycleID: res.CycleID,
		Title:   res.Title,
		Outcome: string(res.Outcome),
		PostID:  res.PostID,
		MediaID: res.MediaID,
		SleepMS: res.Sleep.Milliseconds(),
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := l.recorder.AppendPost(rctx, rec); err != nil {
		log.Warn("record attempt failed", logx.Err(err))
	}
}

// SleepContext waits for d, returning ctx.Err() if ctx ends first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
