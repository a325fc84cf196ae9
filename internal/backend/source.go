package backend

import (
	"context"
	"time"

	"stockdash/internal/domain"
)

// maxRows bounds a single window fetch. A trading day of minute trends is
// 241 rows and a day of snapshots rarely exceeds a few thousand.
const maxRows = 10000

// Quotes returns the snapshots of code within [start, end].
func (c *Client) Quotes(ctx context.Context, code string, start, end time.Time) ([]domain.Quote, error) {
	page, err := c.ListQuotes(ctx, QuoteListRequest{
		Code:      code,
		StartTime: start.Unix(),
		EndTime:   end.Unix(),
		Page:      1,
		Limit:     maxRows,
	})
	if err != nil {
		return nil, err
	}
	return page.Quotes, nil
}

// Trends returns the minute trend points of code within [start, end].
func (c *Client) Trends(ctx context.Context, code string, start, end time.Time) ([]domain.Trend, error) {
	const layout = "2006-01-02 15:04"
	page, err := c.ListTrends(ctx, TrendListRequest{
		Code:          code,
		StartDatetime: start.In(c.loc).Format(layout),
		EndDatetime:   end.In(c.loc).Format(layout),
		Page:          1,
		Limit:         maxRows,
	})
	if err != nil {
		return nil, err
	}
	return page.Trends, nil
}

// Klines returns the bars of code for period within [start, end], oldest
// first.
func (c *Client) Klines(ctx context.Context, code string, period int, start, end time.Time) ([]domain.Kline, error) {
	page, err := c.ListKlines(ctx, KlineListRequest{
		Code:      code,
		Period:    period,
		StartDate: start.In(c.loc).Format(time.DateOnly),
		EndDate:   end.In(c.loc).Format(time.DateOnly),
		Page:      1,
		Limit:     maxRows,
		OrderBy:   "ASC",
	})
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}
