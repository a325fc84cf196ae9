package backend

import "stockdash/internal/domain"

// Request bodies. Validation tags mirror the backend's accepted values.

type StockListRequest struct {
	Market     string `json:"market,omitempty"`
	MarketCode *int   `json:"marketCode,omitempty" validate:"omitempty,oneof=0 1"`
	Page       int    `json:"page,omitempty" validate:"gte=0"`
	Limit      int    `json:"limit,omitempty" validate:"gte=0"`
}

type StockSyncRequest struct {
	Code       string `json:"code" validate:"required"`
	MarketCode int    `json:"marketCode" validate:"oneof=0 1"`
}

type codeRequest struct {
	Code string `json:"code" validate:"required"`
}

type idRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

type QuoteListRequest struct {
	Code      string `json:"code,omitempty"`
	StartTime int64  `json:"startTime,omitempty" validate:"gte=0"` // epoch seconds
	EndTime   int64  `json:"endTime,omitempty" validate:"omitempty,gtefield=StartTime"`
	Page      int    `json:"page,omitempty" validate:"gte=0"`
	Limit     int    `json:"limit,omitempty" validate:"gte=0"`
}

type QuoteSyncRequest struct {
	Code   string `json:"code" validate:"required"`
	Market int    `json:"market" validate:"oneof=0 1"`
}

type RankingsRequest struct {
	Limit int `json:"limit,omitempty" validate:"gte=0"`
}

type TrendListRequest struct {
	Code          string `json:"code,omitempty"`
	NDays         int    `json:"ndays,omitempty" validate:"omitempty,oneof=1 5"`
	StartDatetime string `json:"startDatetime,omitempty"` // YYYY-MM-DD HH:mm
	EndDatetime   string `json:"endDatetime,omitempty"`
	Page          int    `json:"page,omitempty" validate:"gte=0"`
	Limit         int    `json:"limit,omitempty" validate:"gte=0"`
}

type TrendSyncRequest struct {
	Code   string `json:"code" validate:"required"`
	Market int    `json:"market" validate:"oneof=0 1"`
	NDays  int    `json:"ndays,omitempty" validate:"omitempty,oneof=1 5"`
}

type TrendDeleteRangeRequest struct {
	Code          string `json:"code" validate:"required"`
	StartDatetime string `json:"startDatetime" validate:"required"`
	EndDatetime   string `json:"endDatetime" validate:"required"`
}

type KlineListRequest struct {
	Code      string `json:"code" validate:"required"`
	Period    int    `json:"period,omitempty" validate:"omitempty,oneof=101 102 103 1 5 15 30 60"`
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"endDate,omitempty"`
	Page      int    `json:"page,omitempty" validate:"gte=0"`
	Limit     int    `json:"limit,omitempty" validate:"gte=0"`
	OrderBy   string `json:"orderBy,omitempty" validate:"omitempty,oneof=ASC DESC"`
}

type KlineSyncRequest struct {
	Code      string `json:"code" validate:"required"`
	Period    string `json:"period,omitempty" validate:"omitempty,oneof=daily weekly monthly 1min 5min 15min 30min 60min"`
	FqType    int    `json:"fqType" validate:"oneof=0 1 2"`
	Limit     int    `json:"limit,omitempty" validate:"gte=0"`
	StartDate string `json:"startDate,omitempty"` // YYYYMMDD
	EndDate   string `json:"endDate,omitempty"`
}

type KlineStatsRequest struct {
	Code   string `json:"code" validate:"required"`
	Period int    `json:"period,omitempty" validate:"omitempty,oneof=101 102 103 1 5 15 30 60"`
}

type MinuteBarListRequest struct {
	Code      string `json:"code,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Page      int    `json:"page,omitempty" validate:"gte=0"`
	PageSize  int    `json:"pageSize,omitempty" validate:"gte=0"`
}

type MinuteBarSyncRequest struct {
	Code   string `json:"code" validate:"required"`
	Market int    `json:"market" validate:"oneof=0 1"`
}

type SignalQueryRequest struct {
	StrategyCode  string  `json:"strategyCode,omitempty"`
	Symbol        string  `json:"symbol,omitempty"`
	StartDate     string  `json:"startDate,omitempty"`
	EndDate       string  `json:"endDate,omitempty"`
	AllowOnly     bool    `json:"allowOnly,omitempty"`
	MinConfidence float64 `json:"minConfidence,omitempty" validate:"gte=0,lte=1"`
	Page          int     `json:"page,omitempty" validate:"gte=0"`
	PageSize      int     `json:"pageSize,omitempty" validate:"gte=0"`
}

type LatestSignalsRequest struct {
	Limit        int    `json:"limit,omitempty" validate:"gte=0"`
	StrategyCode string `json:"strategyCode,omitempty"`
	Symbol       string `json:"symbol,omitempty"`
	AllowOnly    bool   `json:"allowOnly,omitempty"`
}

type EvaluateRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	Market *int   `json:"market,omitempty" validate:"omitempty,oneof=0 1"`
}

type TradeStatsRequest struct {
	Symbol    string `json:"symbol,omitempty"`
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

type tradeUpdateRequest struct {
	ID         int64         `json:"id" validate:"required,gt=0"`
	UpdateData *domain.Trade `json:"updateData" validate:"required"`
}
