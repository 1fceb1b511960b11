package compose

import (
	"math/rand"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"newsbot/internal/feed"
)

var fixedNow = time.Unix(1760600000, 0)

func newTestComposer(seed int64) *Composer {
	return New(WithRand(rand.New(rand.NewSource(seed))), WithClock(func() time.Time { return fixedNow }))
}

func TestStripMarkup(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"  padded  ", "padded"},
		{`<a href="x">Link</a> <b>bold</b>`, "Link bold"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"<p>one</p><p>two</p>", "onetwo"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripMarkup(tt.in); got != tt.want {
			t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComposeShape(t *testing.T) {
	t.Parallel()
	c := newTestComposer(1)
	seen := NewSeenTitles()

	draft, ok := c.Compose(feed.Topic{Title: "A", Description: "A is great"}, seen)
	if !ok {
		t.Fatal("expected a draft")
	}
	parts := strings.Split(draft, "\n\n")
	if len(parts) != 5 {
		t.Fatalf("draft has %d blocks: %q", len(parts), draft)
	}
	if !contains(intros, parts[0]) {
		t.Fatalf("unknown intro %q", parts[0])
	}
	if parts[1] != "👉 A" {
		t.Fatalf("title block = %q", parts[1])
	}
	// "a is great" starts with "a", so the description is dropped.
	if parts[2] != "" {
		t.Fatalf("description should be dropped, got %q", parts[2])
	}
	if parts[4] != "⏳ 1760600000" {
		t.Fatalf("timestamp block = %q", parts[4])
	}
	assertHashtags(t, parts[3])
	if !seen.Has("A") || seen.Len() != 1 {
		t.Fatal("title should be recorded")
	}
}

func TestComposeKeepsDistinctDescription(t *testing.T) {
	t.Parallel()
	c := newTestComposer(2)
	draft, ok := c.Compose(feed.Topic{Title: "<b>Monsoon arrives early in Kerala</b>", Description: "IMD says rains &amp; winds by Friday"}, NewSeenTitles())
	if !ok {
		t.Fatal("expected a draft")
	}
	if !strings.Contains(draft, "👉 Monsoon arrives early in Kerala\n\nIMD says rains & winds by Friday\n\n") {
		t.Fatalf("unexpected draft %q", draft)
	}
}

func TestComposeDropsDescriptionRepeatingTitlePrefix(t *testing.T) {
	t.Parallel()
	c := newTestComposer(3)
	title := "Sensex Hits Record High As Markets Rally"
	draft, ok := c.Compose(feed.Topic{Title: title, Description: "sensex hits record h and more words"}, NewSeenTitles())
	if !ok {
		t.Fatal("expected a draft")
	}
	if strings.Contains(draft, "and more words") {
		t.Fatalf("description should be dropped: %q", draft)
	}
}

func TestComposeSeenTitleSkips(t *testing.T) {
	t.Parallel()
	c := newTestComposer(4)
	seen := NewSeenTitles()
	seen.Add("Repeat")

	draft, ok := c.Compose(feed.Topic{Title: " <i>Repeat</i> ", Description: "x"}, seen)
	if ok || draft != "" {
		t.Fatalf("expected skip, got %q %v", draft, ok)
	}
	if seen.Len() != 1 {
		t.Fatalf("seen size changed: %d", seen.Len())
	}
}

func TestComposeTruncatesKeepingTail(t *testing.T) {
	t.Parallel()
	c := newTestComposer(5)
	desc := strings.Repeat("नमस्ते दुनिया ", 60)
	draft, ok := c.Compose(feed.Topic{Title: "Long story", Description: desc}, NewSeenTitles())
	if !ok {
		t.Fatal("expected a draft")
	}
	if n := utf8.RuneCountInString(draft); n != MaxRunes {
		t.Fatalf("draft length = %d runes, want %d", n, MaxRunes)
	}
	if !strings.HasSuffix(draft, "⏳ 1760600000") {
		t.Fatalf("timestamp lost: %q", draft)
	}
	parts := strings.Split(draft, "\n\n")
	assertHashtags(t, parts[len(parts)-2])
}

func TestComposeHashtagsAlwaysDistinct(t *testing.T) {
	t.Parallel()
	c := newTestComposer(6)
	seen := NewSeenTitles()
	for i := 0; i < 200; i++ {
		draft, ok := c.Compose(feed.Topic{Title: "t" + strings.Repeat("x", i), Description: "d"}, seen)
		if !ok {
			t.Fatalf("iteration %d: expected draft", i)
		}
		parts := strings.Split(draft, "\n\n")
		assertHashtags(t, parts[3])
		if utf8.RuneCountInString(draft) > MaxRunes {
			t.Fatalf("iteration %d: draft too long", i)
		}
	}
}

func TestSeenTitles(t *testing.T) {
	t.Parallel()
	s := NewSeenTitles()
	if !s.Add("a") || s.Add("a") {
		t.Fatal("Add should report novelty")
	}
	if !s.Has("a") || s.Has("b") || s.Len() != 1 {
		t.Fatal("unexpected set state")
	}
}

func assertHashtags(t *testing.T, block string) {
	t.Helper()
	tags := strings.Split(block, " ")
	if len(tags) != HashtagCount {
		t.Fatalf("hashtags = %q", block)
	}
	got := map[string]bool{}
	for _, tag := range tags {
		if !contains(hashtags, tag) {
			t.Fatalf("unknown hashtag %q", tag)
		}
		if got[tag] {
			t.Fatalf("duplicate hashtag %q", tag)
		}
		got[tag] = true
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestFixedSets(t *testing.T) {
	t.Parallel()
	wantIntros := []string{"🔥 Breaking Khabar!", "📰 Aaj Ki Taaza Update!", "📢 Trending News Alert!", "⚡ Fact Check This!", "🚨 Big Update!"}
	wantTags := []string{"#Trending", "#IndiaNews", "#Breaking", "#LatestUpdate", "#TopStory", "#InShorts"}
	if strings.Join(intros, "|") != strings.Join(wantIntros, "|") {
		t.Fatalf("intros = %q", intros)
	}
	if strings.Join(hashtags, "|") != strings.Join(wantTags, "|") {
		t.Fatalf("hashtags = %q", hashtags)
	}
	if len(hashtags) < HashtagCount {
		t.Fatalf("pool of %d cannot yield %d distinct tags", len(hashtags), HashtagCount)
	}
}
