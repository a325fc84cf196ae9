// Package stockdash is a Go client for the stockdash chart API.
package stockdash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stockdash: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("stockdash: %d: %s", e.Status, e.Message)
}

// Client provides a Go SDK for the stockdash-server API.
type Client struct {
	baseURL string
	rc      *resty.Client
}

// NewClient creates a new stockdash API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		rc: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

// Health returns the server health report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.call(ctx, resty.MethodGet, "/api/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Stocks returns the watch list sorted by sort (code, gain, loss, amount or
// volume; empty for code order).
func (c *Client) Stocks(ctx context.Context, sort string) (*StockList, error) {
	q := url.Values{}
	if sort != "" {
		q.Set("sort", sort)
	}
	var out StockList
	if err := c.call(ctx, resty.MethodGet, "/api/stocks", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// View returns one stored chart view of code without decoding its payload.
func (c *Client) View(ctx context.Context, code, view string) (*View, error) {
	var out View
	path := "/api/charts/" + url.PathEscape(code) + "/" + url.PathEscape(view)
	if err := c.call(ctx, resty.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Intraday returns today's session chart of code.
func (c *Client) Intraday(ctx context.Context, code string) (*Intraday, error) {
	var out Intraday
	if err := c.viewInto(ctx, code, "intraday", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FiveDay returns the recent sessions chart of code.
func (c *Client) FiveDay(ctx context.Context, code string) (*FiveDay, error) {
	var out FiveDay
	if err := c.viewInto(ctx, code, "five-day", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Daily returns the candlestick chart of code.
func (c *Client) Daily(ctx context.Context, code string) (*Daily, error) {
	var out Daily
	if err := c.viewInto(ctx, code, "daily", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Sync asks the server to sync code from the backend and reload its views.
func (c *Client) Sync(ctx context.Context, code string) (*SyncResult, error) {
	var out SyncResult
	if err := c.call(ctx, resty.MethodPost, "/api/charts/"+url.PathEscape(code)+"/sync", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LatestSignals returns recent strategy signals, optionally for one symbol.
func (c *Client) LatestSignals(ctx context.Context, symbol string, limit int) ([]Signal, error) {
	q := url.Values{}
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Signals []Signal `json:"signals"`
	}
	if err := c.call(ctx, resty.MethodGet, "/api/signals/latest", q, &out); err != nil {
		return nil, err
	}
	return out.Signals, nil
}

func (c *Client) viewInto(ctx context.Context, code, view string, out any) error {
	v, err := c.View(ctx, code, view)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v.Data, out); err != nil {
		return fmt.Errorf("decoding %s view: %w", view, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, out any) error {
	req := c.rc.R().SetContext(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		var body struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		apiErr := &APIError{Status: resp.StatusCode(), Message: resp.Status()}
		if json.Unmarshal(resp.Body(), &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
			apiErr.Code = body.Code
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
