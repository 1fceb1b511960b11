package xapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newsbot/internal/publisher"
)

var testCreds = Credentials{APIKey: "ck", APISecret: "cs", AccessToken: "at", AccessSecret: "as"}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{
		Credentials: testCreds,
		APIBase:     srv.URL,
		UploadBase:  srv.URL + "/",
		RatePerSec:  1000,
	}, WithBaseClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Credentials: Credentials{APIKey: "only"}}); err == nil {
		t.Fatal("expected error with missing credentials")
	}
}

func TestPostSuccess(t *testing.T) {
	t.Parallel()
	var got createPostRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "OAuth ") || !strings.Contains(auth, `oauth_consumer_key="ck"`) {
			t.Errorf("request not OAuth1 signed: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"1850","text":"hi"}}`)
	})

	id, err := c.Post(context.Background(), "hi", []string{"m1"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if id != "1850" {
		t.Fatalf("id = %q", id)
	}
	if got.Text != "hi" || got.Media == nil || len(got.Media.MediaIDs) != 1 || got.Media.MediaIDs[0] != "m1" {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestPostWithoutMediaOmitsField(t *testing.T) {
	t.Parallel()
	var raw map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"1"}}`)
	})
	if _, err := c.Post(context.Background(), "text only", nil); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if _, ok := raw["media"]; ok {
		t.Fatalf("media should be omitted, body = %v", raw)
	}
}

func TestPostClassifiesFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
		body   string
		kind   publisher.Kind
		detail string
	}{
		{name: "rate limited", status: 429, body: `{"title":"Too Many Requests","detail":"Too Many Requests"}`, kind: publisher.KindRateLimited, detail: "Too Many Requests"},
		{name: "forbidden", status: 403, body: `{"detail":"You are not allowed to create a Tweet with duplicate content."}`, kind: publisher.KindForbidden, detail: "duplicate content"},
		{name: "server error", status: 503, body: `upstream down`, kind: publisher.KindOther, detail: "upstream down"},
		{name: "unauthorized", status: 401, body: `{"errors":[{"message":"Could not authenticate you"}]}`, kind: publisher.KindOther, detail: "Could not authenticate"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("x-rate-limit-reset", "1760600000")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.Post(context.Background(), "x", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := publisher.KindOf(err); got != tt.kind {
				t.Fatalf("kind = %v, want %v", got, tt.kind)
			}
			pe := err.(*publisher.Error)
			if pe.Status != tt.status || !strings.Contains(pe.Detail, tt.detail) {
				t.Fatalf("unexpected error %+v", pe)
			}
			if !pe.ResetAt.Equal(time.Unix(1760600000, 0)) {
				t.Fatalf("ResetAt = %v", pe.ResetAt)
			}
		})
	}
}

func TestUploadMedia(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1.1/media/upload.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("media")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if string(b) != "jpegbytes" || hdr.Filename != "image.jpg" {
			t.Errorf("unexpected upload %q %q", hdr.Filename, b)
		}
		_, _ = io.WriteString(w, `{"media_id":710511363345354753,"media_id_string":"710511363345354753"}`)
	})

	id, err := c.UploadMedia(context.Background(), []byte("jpegbytes"))
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if id != "710511363345354753" {
		t.Fatalf("media id = %q", id)
	}
}

func TestUploadMediaRejectsEmpty(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	if _, err := c.UploadMedia(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty media")
	}
}

func TestPostTimeoutIsOther(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()
	c, err := New(Config{Credentials: testCreds, APIBase: srv.URL, Timeout: 50 * time.Millisecond}, WithBaseClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Post(context.Background(), "x", nil)
	if err == nil {
		t.Fatal("expected timeout")
	}
	if publisher.KindOf(err) != publisher.KindOther {
		t.Fatalf("kind = %v, want other", publisher.KindOf(err))
	}
}
