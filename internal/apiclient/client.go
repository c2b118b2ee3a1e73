// Package apiclient talks to the pautas REST backend.
//
// Reads wait for the backend to answer the readiness probe before issuing
// the real request. List reads degrade to empty results on failure; detail
// reads and every mutation return the error to the caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const checkPath = "/auth/check"

// ProbePolicy controls the readiness probe retry loop.
type ProbePolicy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	// MaxAttempts bounds the probe; 0 retries until the context ends.
	MaxAttempts int
}

func (p ProbePolicy) normalized() ProbePolicy {
	if p.Interval <= 0 {
		p.Interval = time.Second
	}
	if p.MaxInterval < p.Interval {
		p.MaxInterval = p.Interval
	}
	if p.MaxAttempts < 0 {
		p.MaxAttempts = 0
	}
	return p
}

// backoff returns the wait before the next probe attempt (attempt >= 1).
func (p ProbePolicy) backoff(attempt int) time.Duration {
	d := p.Interval
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxInterval {
			return p.MaxInterval
		}
	}
	return d
}

type Client struct {
	baseURL string
	http    *http.Client
	probe   ProbePolicy

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithProbe(p ProbePolicy) Option {
	return func(c *Client) { c.probe = p.normalized() }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New returns a client rooted at baseURL (for example http://host:8000/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		probe:   ProbePolicy{}.normalized(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// SetToken installs the bearer token sent with every request. An empty token
// removes the Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == status
}

// WaitReady polls the health endpoint until it answers 2xx, the policy's
// attempt bound is reached, or ctx ends.
func (c *Client) WaitReady(ctx context.Context) error {
	p := c.probe
	for attempt := 1; ; attempt++ {
		err := c.do(ctx, http.MethodGet, checkPath, nil, nil)
		if err == nil {
			if attempt > 1 {
				log.Info().Int("attempts", attempt).Msg("backend ready")
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return fmt.Errorf("backend not ready after %d attempts: %w", attempt, err)
		}
		wait := p.backoff(attempt)
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("backend not ready")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// read runs the probe and then the request.
func (c *Client) read(ctx context.Context, path string, out any) error {
	if err := c.WaitReady(ctx); err != nil {
		return err
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// readList is read with the empty-on-failure fallback. Cancellation is
// still reported so callers can stop.
func readList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	if err := c.read(ctx, path, &out); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Error().Err(err).Str("path", path).Msg("list read failed; showing empty result")
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, path, out)
}

func (c *Client) send(req *http.Request, path string, out any) error {
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", req.Method).Str("path", path).Str("request_id", reqID).Msg("request failed")
		return err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	log.Debug().
		Str("method", req.Method).
		Str("path", path).
		Int("status", res.StatusCode).
		Dur("took", time.Since(start)).
		Str("request_id", reqID).
		Msg("request")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Method: req.Method, Path: path, Status: res.StatusCode, Detail: decodeDetail(b)}
		if path != checkPath {
			log.Error().Err(apiErr).Str("request_id", reqID).Msg("backend rejected request")
		}
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, path, err)
	}
	return nil
}

// decodeDetail extracts the backend's {"detail": ...} message.
func decodeDetail(b []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(b, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(b))
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}
	// Validation errors come back as a list of objects.
	return string(body.Detail)
}
