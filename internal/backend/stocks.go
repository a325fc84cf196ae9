package backend

import (
	"context"

	"stockdash/internal/domain"
)

// ListStocks returns the watch list.
func (c *Client) ListStocks(ctx context.Context, req StockListRequest) ([]domain.Stock, error) {
	var out []domain.Stock
	if err := c.post(ctx, "/api/stocks/list", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SyncStock refreshes one stock from the upstream market data provider.
func (c *Client) SyncStock(ctx context.Context, req StockSyncRequest) (*domain.Stock, error) {
	var out domain.Stock
	if err := c.sync(ctx, "/api/stocks/sync", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetStock returns one stock by code.
func (c *Client) GetStock(ctx context.Context, code string) (*domain.Stock, error) {
	var out domain.Stock
	if err := c.post(ctx, "/api/stocks/get-by-code", codeRequest{Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteStock removes a stock from the watch list.
func (c *Client) DeleteStock(ctx context.Context, id int64) error {
	return c.write(ctx, "/api/stocks/delete", idRequest{ID: id}, nil)
}
