// Package notehub is the HTTP client for the remote notes API.
package notehub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"notehub/internal/errs"
	"notehub/internal/notes"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// RateLimit bounds outbound requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// Client talks to the notes API.
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{base: base, token: cfg.Token, http: hc, limiter: limiter}, nil
}

// ListNotes fetches one page of notes.
func (c *Client) ListNotes(ctx context.Context, p notes.ListParams) (*notes.ListResult, error) {
	q := url.Values{}
	for k, v := range p.Query() {
		q.Set(k, v)
	}

	var out notes.ListResult
	if err := c.do(ctx, http.MethodGet, "/notes", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Notes == nil {
		out.Notes = []notes.Note{}
	}
	return &out, nil
}

// GetNote fetches a single note.
func (c *Client) GetNote(ctx context.Context, id notes.NoteID) (*notes.Note, error) {
	var out notes.Note
	if err := c.do(ctx, http.MethodGet, "/notes/"+url.PathEscape(id.String()), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateNote submits a new note. The input is sent as given; callers
// validate first.
func (c *Client) CreateNote(ctx context.Context, in notes.CreateNoteInput) (*notes.Note, error) {
	var out notes.Note
	if err := c.do(ctx, http.MethodPost, "/notes", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteNote removes a note and returns the deleted record.
func (c *Client) DeleteNote(ctx context.Context, id notes.NoteID) (*notes.Note, error) {
	var out notes.Note
	if err := c.do(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id.String()), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping checks that the API answers an authenticated list request.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{"page": {"1"}, "perPage": {"1"}}
	return c.do(ctx, http.MethodGet, "/notes", q, nil, nil)
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.Wrap(errs.Unavailable, "notes API unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(raw, &apiErr)
		cause := fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(apiErr.Message))
		return errs.Wrap(errs.FromHTTPStatus(resp.StatusCode), statusMessage(resp.StatusCode), cause)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.Unavailable, "notes API sent an unreadable response", err)
	}
	return nil
}

func statusMessage(status int) string {
	switch errs.FromHTTPStatus(status) {
	case errs.NotFound:
		return "note not found"
	case errs.PermissionDenied:
		return "notes API rejected the credentials"
	case errs.InvalidArgument:
		return "notes API rejected the request"
	case errs.Unavailable:
		return "notes API is unavailable"
	default:
		return fmt.Sprintf("notes API returned status %d", status)
	}
}
