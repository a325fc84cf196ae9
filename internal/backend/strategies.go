package backend

import (
	"context"

	"stockdash/internal/domain"
)

// SignalPage is one page of stored strategy signals.
type SignalPage struct {
	List     []domain.StrategySignal `json:"list"`
	Total    int                     `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"pageSize"`
}

// QuerySignals searches stored strategy signals.
func (c *Client) QuerySignals(ctx context.Context, req SignalQueryRequest) (*SignalPage, error) {
	var out SignalPage
	if err := c.post(ctx, "/api/strategies/signals/query", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LatestSignals returns the most recent strategy signals.
func (c *Client) LatestSignals(ctx context.Context, req LatestSignalsRequest) ([]domain.StrategySignal, error) {
	var out []domain.StrategySignal
	if err := c.post(ctx, "/api/strategies/signals/latest", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EvaluateCloseAuction asks the backend to evaluate the close-auction
// strategy for a symbol now.
func (c *Client) EvaluateCloseAuction(ctx context.Context, req EvaluateRequest) (*domain.StrategyEvaluation, error) {
	var out domain.StrategyEvaluation
	if err := c.write(ctx, "/api/strategies/close-auction/evaluate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EvaluateRuleTrend runs the rule-trend strategy for a code.
func (c *Client) EvaluateRuleTrend(ctx context.Context, code string) (*domain.RuleTrendEvaluation, error) {
	var out domain.RuleTrendEvaluation
	if err := c.write(ctx, "/api/strategies/rule-trend/evaluate", codeRequest{Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
