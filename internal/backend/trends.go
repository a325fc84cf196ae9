package backend

import (
	"context"

	"stockdash/internal/domain"
)

// TrendPage is one page of minute trend points.
type TrendPage struct {
	Trends []domain.Trend `json:"trends"`
	Total  int            `json:"total"`
}

// SyncResult reports how many records a sync touched.
type SyncResult struct {
	Synced   int `json:"synced"`
	Total    int `json:"total"`
	NewAdded int `json:"newAdded"`
}

// ListTrends returns stored minute trend points.
func (c *Client) ListTrends(ctx context.Context, req TrendListRequest) (*TrendPage, error) {
	var out TrendPage
	if err := c.post(ctx, "/api/trends/list", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncTrends pulls one or five days of minute trends into the backend.
func (c *Client) SyncTrends(ctx context.Context, req TrendSyncRequest) (*SyncResult, error) {
	var out SyncResult
	if err := c.sync(ctx, "/api/trends/sync-from-api", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTrendRange removes a code's trend points within a datetime range.
func (c *Client) DeleteTrendRange(ctx context.Context, req TrendDeleteRangeRequest) error {
	return c.write(ctx, "/api/trends/delete-range", req, nil)
}
