// Package backend is a typed client for the stock backend REST API. Every
// call is a JSON request to a fixed /api path whose response is wrapped in
// a {data, message, result|success, code} envelope.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"stockdash/internal/domain"
	"stockdash/internal/util"
)

// RequestIDHeader carries a per-call identifier for log correlation.
const RequestIDHeader = "X-Request-Id"

// APIError is returned for any response the backend reports as failed.
type APIError struct {
	Status  int    // HTTP status
	Code    string // envelope code, if any
	Message string
	Path    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend %s: status %d code %s: %s", e.Path, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Path, e.Status, e.Message)
}

// Temporary reports whether the failure is worth retrying.
func (e *APIError) Temporary() bool {
	return e.Status >= 500
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	SyncRatePerMin int
	SyncBurst      int
	Location       *time.Location // zone of naive backend times
	Logger         *slog.Logger
	HTTPClient     *http.Client
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	rc       *resty.Client
	validate *validator.Validate
	retries  int
	delay    time.Duration
	syncRL   *util.RateLimiter
	loc      *time.Location
	logger   *slog.Logger
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: timeout,
			TLSHandshakeTimeout:   10 * time.Second,
			MaxIdleConnsPerHost:   8,
			IdleConnTimeout:       90 * time.Second,
		},
		Timeout: timeout,
	}
}

// New creates a Client for opts.BaseURL.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location, _ = util.LoadMarketLocation("")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = newHTTPClient(opts.Timeout)
	}

	rc := resty.NewWithClient(hc).
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json; charset=UTF-8").
		SetHeader("Accept", "application/json")

	return &Client{
		rc:       rc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		retries:  opts.MaxRetries,
		delay:    opts.RetryDelay,
		syncRL:   util.NewRateLimiter(opts.SyncRatePerMin, opts.SyncBurst),
		loc:      opts.Location,
		logger:   opts.Logger,
	}
}

// Location returns the zone used for naive backend times.
func (c *Client) Location() *time.Location { return c.loc }

// envelope is the common response wrapper. Every field is optional.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Result  *domain.Num     `json:"result"`
	Success *bool           `json:"success"`
	Code    json.RawMessage `json:"code"`
}

func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Msg
}

func (e *envelope) code() string {
	s := string(bytes.Trim(e.Code, `"`))
	if s == "null" {
		return ""
	}
	return s
}

// decodeEnvelope applies the success rules in order: an explicit success
// flag, then a result code within [100, 200], then the HTTP status. On
// success the payload is data, or the whole body when data is absent.
func decodeEnvelope(path string, status int, body []byte) (json.RawMessage, error) {
	var env envelope
	parseErr := json.Unmarshal(body, &env)

	var ok bool
	switch {
	case parseErr != nil:
		// A bare JSON array or scalar carries no envelope.
		if json.Valid(body) && status >= 200 && status < 300 {
			return body, nil
		}
		ok = false
	case env.Success != nil:
		ok = *env.Success
	case env.Result != nil:
		r := env.Result.Float()
		ok = r >= 100 && r <= 200
	default:
		ok = status >= 200 && status < 300
	}

	if !ok {
		apiErr := &APIError{Status: status, Path: path}
		if parseErr == nil {
			apiErr.Code = env.code()
			apiErr.Message = env.message()
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
			if parseErr != nil && status >= 200 && status < 300 {
				apiErr.Message = "malformed response body"
			}
		}
		return nil, apiErr
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		if env.Success == nil && env.Result == nil {
			return body, nil
		}
		return nil, nil
	}
	return env.Data, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	var decErr *decodeError
	return !errors.As(err, &decErr)
}

type decodeError struct {
	path string
	err  error
}

func (e *decodeError) Error() string { return fmt.Sprintf("decoding %s response: %v", e.path, e.err) }
func (e *decodeError) Unwrap() error { return e.err }

// do sends one request and decodes the unwrapped payload into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	id := uuid.NewString()
	req := c.rc.R().SetContext(ctx).SetHeader(RequestIDHeader, id)
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("backend request failed", "path", path, "request_id", id, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug("backend request", "path", path, "request_id", id,
		"status", resp.StatusCode(), "elapsed", time.Since(start))

	data, err := decodeEnvelope(path, resp.StatusCode(), resp.Body())
	if err != nil {
		return err
	}
	if out == nil || data == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &decodeError{path: path, err: err}
	}
	return nil
}

func (c *Client) check(ctx context.Context, path string, body any) error {
	if body == nil {
		return nil
	}
	if err := c.validate.StructCtx(ctx, body); err != nil {
		return fmt.Errorf("invalid %s request: %w", path, err)
	}
	return nil
}

// read performs an idempotent query, retrying transport failures and 5xx
// responses with exponential backoff.
func (c *Client) read(ctx context.Context, method, path string, body, out any) error {
	if err := c.check(ctx, path, body); err != nil {
		return err
	}
	return util.RetryIf(ctx, c.retries, c.delay, retryable, func() error {
		return c.do(ctx, method, path, body, out)
	})
}

// write performs a mutating call once.
func (c *Client) write(ctx context.Context, path string, body, out any) error {
	body = orEmpty(body)
	if err := c.check(ctx, path, body); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

// sync performs a backend sync call once, throttled by the sync limiter.
func (c *Client) sync(ctx context.Context, path string, body, out any) error {
	body = orEmpty(body)
	if err := c.check(ctx, path, body); err != nil {
		return err
	}
	if err := c.syncRL.Wait(ctx); err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.read(ctx, http.MethodPost, path, orEmpty(body), out)
}

func orEmpty(body any) any {
	if body == nil {
		return struct{}{}
	}
	return body
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.read(ctx, http.MethodGet, path, nil, out)
}
