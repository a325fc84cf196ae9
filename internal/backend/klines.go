package backend

import (
	"context"
	"encoding/json"

	"stockdash/internal/domain"
)

// KlinePage is one page of candlestick bars.
type KlinePage struct {
	Data  []domain.Kline `json:"data"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ListKlines returns stored klines for a code.
func (c *Client) ListKlines(ctx context.Context, req KlineListRequest) (*KlinePage, error) {
	var out KlinePage
	if err := c.post(ctx, "/api/klines/list", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncKlines pulls klines from the upstream provider into the backend.
func (c *Client) SyncKlines(ctx context.Context, req KlineSyncRequest) (*SyncResult, error) {
	var out SyncResult
	if err := c.sync(ctx, "/api/klines/sync", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// KlineStats returns the backend's summary of stored klines. Its shape is
// not fixed, so it is returned raw.
func (c *Client) KlineStats(ctx context.Context, req KlineStatsRequest) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.post(ctx, "/api/klines/stats", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
