// Package compose turns a news topic into post text.
package compose

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"newsbot/internal/feed"
)

// MaxRunes bounds a draft, counted in Unicode code points.
const MaxRunes = 275

// HashtagCount is how many distinct hashtags a draft carries.
const HashtagCount = 3

// prefixRunes is how much of the title a description may repeat before it is dropped.
const prefixRunes = 20

// intros open every draft; one is picked uniformly.
var intros = []string{
	"🔥 Breaking Khabar!",
	"📰 Aaj Ki Taaza Update!",
	"📢 Trending News Alert!",
	"⚡ Fact Check This!",
	"🚨 Big Update!",
}

// hashtags is the pool drafts draw HashtagCount distinct tags from.
var hashtags = []string{
	"#Trending",
	"#IndiaNews",
	"#Breaking",
	"#LatestUpdate",
	"#TopStory",
	"#InShorts",
}

type Composer struct {
	mu  sync.Mutex // guards rng
	rng *rand.Rand
	now func() time.Time
}

type Option func(*Composer)

func WithRand(r *rand.Rand) Option {
	return func(c *Composer) {
		if r != nil {
			c.rng = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

func New(opts ...Option) *Composer {
	c := &Composer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Compose builds a draft for topic. It returns ok=false when the cleaned title
// is already in seen or the draft would be blank; a new title is recorded in
// seen before the draft is built.
func (c *Composer) Compose(topic feed.Topic, seen *SeenTitles) (string, bool) {
	title := StripMarkup(topic.Title)
	desc := StripMarkup(topic.Description)

	if strings.HasPrefix(strings.ToLower(desc), firstRunes(strings.ToLower(title), prefixRunes)) {
		desc = ""
	}

	if seen != nil && !seen.Add(title) {
		return "", false
	}

	c.mu.Lock()
	intro := intros[c.rng.Intn(len(intros))]
	perm := c.rng.Perm(len(hashtags))
	c.mu.Unlock()

	tags := make([]string, 0, HashtagCount)
	for _, i := range perm[:HashtagCount] {
		tags = append(tags, hashtags[i])
	}

	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n👉 ")
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(desc)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(tags, " "))
	b.WriteString("\n\n⏳ ")
	b.WriteString(strconv.FormatInt(c.now().Unix(), 10))

	draft := lastRunes(b.String(), MaxRunes)
	if strings.TrimSpace(draft) == "" {
		return "", false
	}
	return draft, true
}

// StripMarkup drops tags, decodes entities and trims surrounding whitespace.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func lastRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
