package backend

import (
	"context"

	"stockdash/internal/domain"
)

// ListMinuteBars returns stored minute OHLC bars.
func (c *Client) ListMinuteBars(ctx context.Context, req MinuteBarListRequest) ([]domain.MinuteBar, error) {
	var out []domain.MinuteBar
	if err := c.post(ctx, "/api/market/minute-bar/list", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SyncMinuteBars pulls today's minute bars for one stock.
func (c *Client) SyncMinuteBars(ctx context.Context, req MinuteBarSyncRequest) error {
	return c.sync(ctx, "/api/market/minute-bar/sync-from-api", req, nil)
}
