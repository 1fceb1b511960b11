// Package xapi publishes posts through the X (Twitter) API.
//
// Posts go through API v2 (POST /2/tweets); images go through the v1.1 media
// upload endpoint. Both are signed with OAuth 1.0a user context.
package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"golang.org/x/time/rate"

	"newsbot/internal/publisher"
)

const (
	DefaultAPIBase       = "https://api.twitter.com"
	DefaultUploadBase    = "https://upload.twitter.com"
	DefaultTimeout       = 30 * time.Second
	DefaultUploadTimeout = 60 * time.Second

	maxErrorBody = 4 << 10
)

type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

type Config struct {
	Credentials   Credentials
	APIBase       string
	UploadBase    string
	Timeout       time.Duration
	UploadTimeout time.Duration
	// RatePerSec paces outgoing calls; bursts of one.
	RatePerSec int
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*options)

type options struct {
	base *http.Client
}

// WithBaseClient sets the client whose transport carries the signed requests.
func WithBaseClient(c *http.Client) Option {
	return func(o *options) { o.base = c }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	cr := cfg.Credentials
	if cr.APIKey == "" || cr.APISecret == "" || cr.AccessToken == "" || cr.AccessSecret == "" {
		return nil, errors.New("xapi: all four credentials are required")
	}
	if strings.TrimSpace(cfg.APIBase) == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if strings.TrimSpace(cfg.UploadBase) == "" {
		cfg.UploadBase = DefaultUploadBase
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	cfg.UploadBase = strings.TrimRight(cfg.UploadBase, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}

	var o options
	for _, fn := range opts {
		fn(&o)
	}
	ctx := context.Background()
	if o.base != nil {
		ctx = context.WithValue(ctx, oauth1.HTTPClient, o.base)
	}
	oc := oauth1.NewConfig(cr.APIKey, cr.APISecret)
	hc := oc.Client(ctx, oauth1.NewToken(cr.AccessToken, cr.AccessSecret))

	return &Client{
		cfg:     cfg,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
	}, nil
}

type createPostRequest struct {
	Text  string       `json:"text"`
	Media *postMediaIn `json:"media,omitempty"`
}

type postMediaIn struct {
	MediaIDs []string `json:"media_ids"`
}

type createPostResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Post publishes text with optional media ids and returns the new post id.
func (c *Client) Post(ctx context.Context, text string, mediaIDs []string) (string, error) {
	const op = "post"
	body := createPostRequest{Text: text}
	if len(mediaIDs) > 0 {
		body.Media = &postMediaIn{MediaIDs: mediaIDs}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", &publisher.Error{Op: op, Err: err}
	}

	var out createPostResponse
	if err := c.do(ctx, op, c.cfg.Timeout, http.MethodPost, c.cfg.APIBase+"/2/tweets", "application/json", bytes.NewReader(b), &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", &publisher.Error{Op: op, Err: errors.New("response without post id")}
	}
	return out.Data.ID, nil
}

type uploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

// UploadMedia uploads image bytes and returns the media id to attach to a post.
func (c *Client) UploadMedia(ctx context.Context, data []byte) (string, error) {
	const op = "upload"
	if len(data) == 0 {
		return "", &publisher.Error{Op: op, Err: errors.New("empty media")}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("media", "image.jpg")
	if err != nil {
		return "", &publisher.Error{Op: op, Err: err}
	}
	if _, err := fw.Write(data); err != nil {
		return "", &publisher.Error{Op: op, Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &publisher.Error{Op: op, Err: err}
	}

	var out uploadResponse
	if err := c.do(ctx, op, c.cfg.UploadTimeout, http.MethodPost, c.cfg.UploadBase+"/1.1/media/upload.json", mw.FormDataContentType(), &buf, &out); err != nil {
		return "", err
	}
	if out.MediaIDString == "" {
		return "", &publisher.Error{Op: op, Err: errors.New("response without media id")}
	}
	return out.MediaIDString, nil
}

func (c *Client) do(ctx context.Context, op string, timeout time.Duration, method, url, contentType string, body io.Reader, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return &publisher.Error{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &publisher.Error{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return &publisher.Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &publisher.Error{
			Op:      op,
			Kind:    publisher.KindFromStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Detail:  errorDetail(raw),
			ResetAt: rateReset(resp.Header),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &publisher.Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorDetail extracts a readable message from v2 problem bodies
// ({"title","detail"}) and v1.1 bodies ({"errors":[{"message"}]}).
func errorDetail(raw []byte) string {
	var body struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Detail != "":
			msg = body.Detail
		case body.Title != "":
			msg = body.Title
		case len(body.Errors) > 0:
			msg = body.Errors[0].Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if len(msg) > 300 {
		msg = msg[:297] + "..."
	}
	return msg
}

func rateReset(h http.Header) time.Time {
	v := strings.TrimSpace(h.Get("x-rate-limit-reset"))
	if v == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
