package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindFromStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusTooManyRequests, KindRateLimited},
		{http.StatusForbidden, KindForbidden},
		{http.StatusUnauthorized, KindOther},
		{http.StatusInternalServerError, KindOther},
		{0, KindOther},
	}
	for _, tt := range tests {
		if got := KindFromStatus(tt.status); got != tt.want {
			t.Errorf("KindFromStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestKindOfUnwraps(t *testing.T) {
	t.Parallel()
	base := &Error{Op: "post", Kind: KindRateLimited, Status: 429}
	wrapped := fmt.Errorf("cycle: %w", base)
	if got := KindOf(wrapped); got != KindRateLimited {
		t.Fatalf("KindOf(wrapped) = %v", got)
	}
	if got := KindOf(errors.New("429 in the text only")); got != KindOther {
		t.Fatalf("plain errors must not be classified by text, got %v", got)
	}
	if got := KindOf(nil); got != KindOther {
		t.Fatalf("KindOf(nil) = %v", got)
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()
	e := &Error{Op: "post", Kind: KindForbidden, Status: 403, Detail: "duplicate content"}
	if got := e.Error(); got != "post: 403 Forbidden: duplicate content" {
		t.Fatalf("Error() = %q", got)
	}
	te := &Error{Op: "upload", Err: context.DeadlineExceeded}
	if !errors.Is(te, context.DeadlineExceeded) {
		t.Fatal("transport error should unwrap")
	}
	if got := te.Error(); got != "upload: context deadline exceeded" {
		t.Fatalf("Error() = %q", got)
	}
	if KindRateLimited.String() != "rate_limited" || KindOther.String() != "other" {
		t.Fatal("unexpected Kind strings")
	}
}
