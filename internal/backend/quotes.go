package backend

import (
	"context"

	"stockdash/internal/domain"
)

// QuotePage is one page of quote snapshots.
type QuotePage struct {
	Quotes []domain.Quote `json:"quotes"`
	Total  int            `json:"total"`
}

// ListQuotes returns quote snapshots, optionally bounded by time.
func (c *Client) ListQuotes(ctx context.Context, req QuoteListRequest) (*QuotePage, error) {
	var out QuotePage
	if err := c.post(ctx, "/api/quotes/list", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LatestQuote returns the most recent snapshot for a code.
func (c *Client) LatestQuote(ctx context.Context, code string) (*domain.Quote, error) {
	var out domain.Quote
	if err := c.post(ctx, "/api/quotes/latest", codeRequest{Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncQuotes fetches a fresh snapshot for one stock into the backend.
func (c *Client) SyncQuotes(ctx context.Context, req QuoteSyncRequest) error {
	return c.sync(ctx, "/api/quotes/syncStockQuotesFromAPI", req, nil)
}

// SyncAllQuotes starts an asynchronous snapshot sync of every stock.
func (c *Client) SyncAllQuotes(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.sync(ctx, "/api/quotes/syncAllStockQuotes", nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Ranking names accepted by Rankings.
const (
	RankGainers = "gainers"
	RankLosers  = "losers"
	RankVolume  = "volume"
)

// Rankings returns the top quotes by the named ranking.
func (c *Client) Rankings(ctx context.Context, ranking string, limit int) ([]domain.Quote, error) {
	switch ranking {
	case RankGainers, RankLosers, RankVolume:
	default:
		return nil, &APIError{Status: 400, Path: "/api/quotes/rankings-" + ranking, Message: "unknown ranking"}
	}
	var out []domain.Quote
	if err := c.post(ctx, "/api/quotes/rankings-"+ranking, RankingsRequest{Limit: limit}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
