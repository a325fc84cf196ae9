package backend

import (
	"context"
	"errors"

	"stockdash/internal/domain"
)

// SyncCode refreshes a code's quote snapshot and today's minute trends.
// Both syncs are attempted; their errors are joined.
func (c *Client) SyncCode(ctx context.Context, code string) error {
	market := domain.MarketOf(code)
	qErr := c.SyncQuotes(ctx, QuoteSyncRequest{Code: code, Market: market})
	_, tErr := c.SyncTrends(ctx, TrendSyncRequest{Code: code, Market: market, NDays: 1})
	return errors.Join(qErr, tErr)
}
