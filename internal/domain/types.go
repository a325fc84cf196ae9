// Package domain defines the shared record types: the upstream shapes
// returned by the stock backend and the canonical chart model derived from
// them.
package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Canonical chart model
// ---------------------------------------------------------------------------

// SourceKind tags which upstream shape produced a bar.
type SourceKind string

const (
	SourceTick   SourceKind = "tick"   // quote snapshot
	SourceTrend  SourceKind = "trend"  // minute trend point
	SourceMinute SourceKind = "minute" // minute OHLC bar
	SourceDaily  SourceKind = "daily"  // daily kline
)

// Intraday reports whether bars of this kind need lunch-recess exclusion.
func (k SourceKind) Intraday() bool {
	return k != SourceDaily
}

// CanonicalBar is the unified OHLCV record fed to every chart.
type CanonicalBar struct {
	Timestamp int64      `json:"t"` // epoch ms
	Open      float64    `json:"o"`
	Close     float64    `json:"c"`
	High      float64    `json:"h"`
	Low       float64    `json:"l"`
	Volume    int64      `json:"v"`
	Amount    float64    `json:"a"`
	Kind      SourceKind `json:"kind"`
}

// SessionBreak is a time interval the renderer collapses.
type SessionBreak struct {
	Start int64  `json:"start"` // epoch ms
	End   int64  `json:"end"`   // epoch ms
	Gap   string `json:"gap"`
}

// Direction classifies a point relative to its predecessor.
type Direction int

const (
	DirectionDown Direction = -1
	DirectionFlat Direction = 0
	DirectionUp   Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "flat"
	}
}

// NullFloat is a float that encodes as JSON null when not Valid.
type NullFloat struct {
	V     float64
	Valid bool
}

// MarshalJSON implements json.Marshaler.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.V)
}

// MASeries is one moving-average line.
type MASeries struct {
	Window int         `json:"window"`
	Values []NullFloat `json:"values"`
}

// DerivedSeries holds metrics index-aligned with a bar sequence.
type DerivedSeries struct {
	MA        []MASeries  `json:"ma"`
	AvgPrice  []float64   `json:"avgPrice"`
	Direction []Direction `json:"direction"`
}

// SessionStats aggregates a bar sequence against a previous close.
type SessionStats struct {
	TotalVolume   int64   `json:"totalVolume"`
	TotalAmount   float64 `json:"totalAmount"`
	Latest        float64 `json:"latest"`
	PreviousClose float64 `json:"previousClose"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
}

// ---------------------------------------------------------------------------
// Lenient numbers
// ---------------------------------------------------------------------------

// Num is a float64 that decodes from JSON numbers, numeric strings, null or
// empty strings. Anything missing, malformed or non-finite decodes as 0.
type Num float64

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (n *Num) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if len(s) >= 2 && s[0] == '"' {
		if unq, err := strconv.Unquote(s); err == nil {
			s = strings.TrimSpace(unq)
		}
	}
	*n = Num(ParseNum(s))
	return nil
}

// Float returns n as a float64.
func (n Num) Float() float64 { return float64(n) }

// ParseNum parses s as a finite float, returning 0 on any failure.
func ParseNum(s string) float64 {
	if s == "" || s == "null" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ---------------------------------------------------------------------------
// Upstream records
// ---------------------------------------------------------------------------

// Market codes used by the backend.
const (
	MarketSZ = 0
	MarketSH = 1
)

// MarketOf infers the backend market of a bare A-share or ETF code:
// Shanghai for codes starting with 5, 6 or 9, Shenzhen otherwise.
func MarketOf(code string) int {
	if code == "" {
		return MarketSZ
	}
	switch code[0] {
	case '5', '6', '9':
		return MarketSH
	}
	return MarketSZ
}

// Kline period codes.
const (
	PeriodDay   = 101
	PeriodWeek  = 102
	PeriodMonth = 103
	PeriodMin1  = 1
	PeriodMin5  = 5
	PeriodMin15 = 15
	PeriodMin30 = 30
	PeriodMin60 = 60
	FqNone      = 0
	FqForward   = 1
	FqBackward  = 2
)

// Stock is one watch-listed instrument.
type Stock struct {
	ID             int64  `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	Market         int    `json:"market"`
	MarketType     string `json:"marketType"`
	Price          Num    `json:"price"`
	Pct            Num    `json:"pct"`
	Change         Num    `json:"change"`
	Volume         Num    `json:"volume"`
	Amount         Num    `json:"amount"`
	TotalMarketCap Num    `json:"totalMarketCap"`
	FloatMarketCap Num    `json:"floatMarketCap"`
	Turnover       Num    `json:"turnover"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
}

// UnmarshalJSON accepts the legacy latestPrice/changePercent/changeAmount/
// marketCode names as fallbacks.
func (s *Stock) UnmarshalJSON(b []byte) error {
	type plain Stock
	aux := struct {
		*plain
		LatestPrice   *Num `json:"latestPrice"`
		ChangePercent *Num `json:"changePercent"`
		ChangeAmount  *Num `json:"changeAmount"`
		MarketCode    *Num `json:"marketCode"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if s.Price == 0 && aux.LatestPrice != nil {
		s.Price = *aux.LatestPrice
	}
	if s.Pct == 0 && aux.ChangePercent != nil {
		s.Pct = *aux.ChangePercent
	}
	if s.Change == 0 && aux.ChangeAmount != nil {
		s.Change = *aux.ChangeAmount
	}
	if s.Market == 0 && aux.MarketCode != nil {
		s.Market = int(*aux.MarketCode)
	}
	return nil
}

// Quote is a tick-level snapshot.
type Quote struct {
	ID                 int64  `json:"id,omitempty"`
	Code               string `json:"code"`
	Name               string `json:"name,omitempty"`
	MarketCode         Num    `json:"marketCode,omitempty"`
	LatestPrice        Num    `json:"latestPrice"`
	ChangePercent      Num    `json:"changePercent"`
	OpenPrice          Num    `json:"openPrice"`
	Volume             Num    `json:"volume"`
	VolumeAmount       Num    `json:"volumeAmount"`
	PreviousClosePrice Num    `json:"previousClosePrice"`
	SnapshotTime       string `json:"snapshotTime"`
	SnapshotDate       string `json:"snapshotDate,omitempty"`
}

// UnmarshalJSON resolves price from latestPrice, price or close, amount from
// volumeAmount or amount, and time from snapshotTime or updateTime (epoch
// seconds).
func (q *Quote) UnmarshalJSON(b []byte) error {
	type plain Quote
	aux := struct {
		*plain
		Price      *Num `json:"price"`
		Close      *Num `json:"close"`
		Amount     *Num `json:"amount"`
		UpdateTime *Num `json:"updateTime"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if q.LatestPrice == 0 {
		switch {
		case aux.Price != nil && *aux.Price != 0:
			q.LatestPrice = *aux.Price
		case aux.Close != nil:
			q.LatestPrice = *aux.Close
		}
	}
	if q.VolumeAmount == 0 && aux.Amount != nil {
		q.VolumeAmount = *aux.Amount
	}
	if q.SnapshotTime == "" && aux.UpdateTime != nil && *aux.UpdateTime > 0 {
		q.SnapshotTime = strconv.FormatInt(int64(*aux.UpdateTime), 10)
	}
	return nil
}

// Trend is one intraday trend (minute) point.
type Trend struct {
	ID        int64  `json:"id,omitempty"`
	Code      string `json:"code"`
	Name      string `json:"name,omitempty"`
	Datetime  string `json:"datetime"`
	Price     Num    `json:"price"`
	AvgPrice  Num    `json:"avgPrice"`
	Volume    Num    `json:"volume"`
	Amount    Num    `json:"amount"`
	Pct       Num    `json:"pct"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Kline is one candlestick bar for a given period.
type Kline struct {
	ID        int64  `json:"id,omitempty"`
	Code      string `json:"code"`
	Name      string `json:"name,omitempty"`
	Period    int    `json:"period"`
	Date      string `json:"date"`
	Open      Num    `json:"open"`
	Close     Num    `json:"close"`
	High      Num    `json:"high"`
	Low       Num    `json:"low"`
	Volume    Num    `json:"volume"` // sent as a string by the backend
	Amount    Num    `json:"amount"`
	Amplitude Num    `json:"amplitude"`
	Pct       Num    `json:"pct"`
	Change    Num    `json:"change"`
	Turnover  Num    `json:"turnover"`
	FqType    int    `json:"fqType"`
}

// MinuteBar is one minute OHLC bar.
type MinuteBar struct {
	ID       int64  `json:"id,omitempty"`
	Code     string `json:"code"`
	Datetime string `json:"datetime"`
	Open     Num    `json:"open"`
	Close    Num    `json:"close"`
	High     Num    `json:"high"`
	Low      Num    `json:"low"`
	Volume   Num    `json:"volume"`
	Amount   Num    `json:"amount"`
}

// StrategySignal is a stored strategy evaluation.
type StrategySignal struct {
	ID           int64          `json:"id,omitempty"`
	StrategyCode string         `json:"strategyCode,omitempty"`
	Symbol       string         `json:"symbol,omitempty"`
	TradeDate    string         `json:"tradeDate,omitempty"`
	Allow        int            `json:"allow"`
	Confidence   Num            `json:"confidence"`
	Reasons      []string       `json:"reasons,omitempty"`
	EvalTime     string         `json:"evalTime,omitempty"`
	Price        Num            `json:"price"`
	VWAP         Num            `json:"vwap"`
	Volume       Num            `json:"volume"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// StrategyEvaluation is the result of an on-demand close-auction evaluation.
type StrategyEvaluation struct {
	Strategy    string   `json:"strategy,omitempty"`
	Symbol      string   `json:"symbol,omitempty"`
	Allow       bool     `json:"allow"`
	Confidence  Num      `json:"confidence"`
	Reasons     []string `json:"reasons,omitempty"`
	EvaluatedAt string   `json:"evaluatedAt,omitempty"`
}

// RuleTrendEvaluation is the result of a rule-trend evaluation.
type RuleTrendEvaluation struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Decision *struct {
		Action string `json:"action,omitempty"`
		Reason string `json:"reason,omitempty"`
	} `json:"decision,omitempty"`
}

// TradeSide is the side of a manual trade entry.
type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// Trade is a manually recorded trade entry.
type Trade struct {
	ID            int64     `json:"id,omitempty"`
	Symbol        string    `json:"symbol" validate:"required"`
	Name          string    `json:"name,omitempty"`
	Type          TradeSide `json:"type" validate:"required,oneof=buy sell"`
	TradingTime   string    `json:"tradingTime,omitempty"`
	Quantity      Num       `json:"quantity" validate:"gte=0"`
	Price         Num       `json:"price" validate:"gte=0"`
	Fee           Num       `json:"fee" validate:"gte=0"`
	OpenPrice     Num       `json:"openPrice,omitempty"`
	ChangePercent Num       `json:"changePercent,omitempty"`
	ChangeAmount  Num       `json:"changeAmount,omitempty"`
	Remarks       string    `json:"remarks,omitempty"`
	CreatedAt     string    `json:"createdAt,omitempty"`
	UpdatedAt     string    `json:"updatedAt,omitempty"`
}

// TradeStats summarises recorded trades.
type TradeStats struct {
	TotalTrades int `json:"totalTrades"`
	BuyTrades   int `json:"buyTrades"`
	SellTrades  int `json:"sellTrades"`
	TotalAmount Num `json:"totalAmount"`
}

// SchedulerJob is one backend scheduled job.
type SchedulerJob struct {
	Name    string `json:"name"`
	NextRun string `json:"nextRun"`
	LastRun string `json:"lastRun"`
	Status  string `json:"status"`
}

// SchedulerStatus reports the backend scheduler state.
type SchedulerStatus struct {
	Jobs    []SchedulerJob `json:"jobs,omitempty"`
	Running bool           `json:"running"`
}

// HealthStatus is the backend health-check response.
type HealthStatus struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}
