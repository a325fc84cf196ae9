package backend

import (
	"context"
	"encoding/json"

	"stockdash/internal/domain"
)

// ListTrades returns every recorded trade.
func (c *Client) ListTrades(ctx context.Context) ([]domain.Trade, error) {
	var out []domain.Trade
	if err := c.post(ctx, "/api/trading/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTrade records a trade.
func (c *Client) CreateTrade(ctx context.Context, t domain.Trade) (*domain.Trade, error) {
	var raw json.RawMessage
	if err := c.write(ctx, "/api/trading/create", &t, &raw); err != nil {
		return nil, err
	}
	return decodeTrade(raw)
}

// UpdateTrade replaces a recorded trade.
func (c *Client) UpdateTrade(ctx context.Context, id int64, t domain.Trade) (*domain.Trade, error) {
	var raw json.RawMessage
	if err := c.write(ctx, "/api/trading/update", tradeUpdateRequest{ID: id, UpdateData: &t}, &raw); err != nil {
		return nil, err
	}
	return decodeTrade(raw)
}

// DeleteTrade removes a recorded trade.
func (c *Client) DeleteTrade(ctx context.Context, id int64) error {
	return c.write(ctx, "/api/trading/delete", idRequest{ID: id}, nil)
}

// TradeStats summarises recorded trades.
func (c *Client) TradeStats(ctx context.Context, req TradeStatsRequest) (*domain.TradeStats, error) {
	var out domain.TradeStats
	if err := c.post(ctx, "/api/trading/stats", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// decodeTrade accepts the trade either bare or wrapped once more in data,
// as create responses are.
func decodeTrade(raw json.RawMessage) (*domain.Trade, error) {
	if len(raw) == 0 {
		return &domain.Trade{}, nil
	}
	var wrapped struct {
		Data *domain.Trade `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Data != nil {
		return wrapped.Data, nil
	}
	var t domain.Trade
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
