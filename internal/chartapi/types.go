package chartapi

import (
	"time"

	"stockdash/internal/dashboard"
	"stockdash/internal/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse reports this server and, when connected, the backend.
type HealthResponse struct {
	Status       string               `json:"status"`
	Mode         string               `json:"mode"`
	Backend      *domain.HealthStatus `json:"backend,omitempty"`
	BackendError string               `json:"backendError,omitempty"`
	Views        int                  `json:"views"`
	Subscribers  int                  `json:"subscribers"`
	StaleDropped uint64               `json:"staleDropped"`
	NextPoll     *time.Time           `json:"nextPoll,omitempty"`
	PollIn       string               `json:"pollIn,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// StocksResponse is the formatted watch list.
type StocksResponse struct {
	Sort   string                  `json:"sort"`
	Count  int                     `json:"count"`
	Rows   []*dashboard.WatchRow   `json:"rows"`
	Groups []dashboard.MarketGroup `json:"groups,omitempty"`
}

// OverviewResponse bundles the three views of one code.
type OverviewResponse struct {
	Code      string    `json:"code"`
	Intraday  any       `json:"intraday"`
	FiveDay   any       `json:"fiveDay"`
	Daily     any       `json:"daily"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SyncResponse reports a manual sync.
type SyncResponse struct {
	Code      string `json:"code"`
	Synced    bool   `json:"synced"`
	SyncError string `json:"syncError,omitempty"`
	Views     int    `json:"views"`
}

// SignalsResponse lists recent strategy signals.
type SignalsResponse struct {
	Symbol  string                  `json:"symbol,omitempty"`
	Signals []domain.StrategySignal `json:"signals"`
}

// TradesResponse lists recorded trades.
type TradesResponse struct {
	Count  int            `json:"count"`
	Trades []domain.Trade `json:"trades"`
}
