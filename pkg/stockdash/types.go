package stockdash

import (
	"encoding/json"
	"time"
)

// Health is the server health report.
type Health struct {
	Status       string     `json:"status"`
	Mode         string     `json:"mode"`
	BackendError string     `json:"backendError,omitempty"`
	Views        int        `json:"views"`
	Subscribers  int        `json:"subscribers"`
	NextPoll     *time.Time `json:"nextPoll,omitempty"`
	PollIn       string     `json:"pollIn,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

// StockRow is one formatted watch-list row.
type StockRow struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Market      int     `json:"market"`
	Price       float64 `json:"price"`
	Pct         float64 `json:"pct"`
	Amount      float64 `json:"amount"`
	Volume      float64 `json:"volume"`
	PriceLabel  string  `json:"priceLabel"`
	PctLabel    string  `json:"pctLabel"`
	AmountLabel string  `json:"amountLabel"`
	VolumeLabel string  `json:"volumeLabel"`
}

// StockList is the watch list in the requested order.
type StockList struct {
	Sort  string     `json:"sort"`
	Count int        `json:"count"`
	Rows  []StockRow `json:"rows"`
}

// Stats summarises a session against its previous close.
type Stats struct {
	TotalVolume   int64   `json:"totalVolume"`
	TotalAmount   float64 `json:"totalAmount"`
	Latest        float64 `json:"latest"`
	PreviousClose float64 `json:"previousClose"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
}

// Labels are Stats formatted for display.
type Labels struct {
	Latest        string `json:"latest"`
	Change        string `json:"change"`
	ChangePercent string `json:"changePercent"`
	Volume        string `json:"volume"`
	Amount        string `json:"amount"`
	High          string `json:"high"`
	Low           string `json:"low"`
}

// PricePoint is one sample on a price line. T is Unix milliseconds.
type PricePoint struct {
	T             int64   `json:"t"`
	Price         float64 `json:"price"`
	AvgPrice      float64 `json:"avgPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Range is a price axis range.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Intraday is the single-session chart of a code.
type Intraday struct {
	Code          string       `json:"code"`
	Date          string       `json:"date"`
	PreviousClose float64      `json:"previousClose"`
	Points        []PricePoint `json:"points"`
	PriceRange    Range        `json:"priceRange"`
	Stats         Stats        `json:"stats"`
	Labels        Labels       `json:"labels"`
}

// FiveDay is the multi-session chart of a code.
type FiveDay struct {
	Code          string       `json:"code"`
	Dates         []string     `json:"dates"`
	PreviousClose float64      `json:"previousClose"`
	Points        []PricePoint `json:"points"`
	PriceRange    Range        `json:"priceRange"`
	Stats         Stats        `json:"stats"`
	Labels        Labels       `json:"labels"`
}

// Candle is one daily bar.
type Candle struct {
	T             int64   `json:"t"`
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	Close         float64 `json:"close"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        int64   `json:"volume"`
	Amount        float64 `json:"amount"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	VolumeLabel   string  `json:"volumeLabel"`
}

// MovingAverage is one MA line, index-aligned with the candles. A nil value
// means the window is not yet full.
type MovingAverage struct {
	Window int        `json:"window"`
	Values []*float64 `json:"values"`
}

// Daily is the candlestick chart of a code.
type Daily struct {
	Code       string          `json:"code"`
	Candles    []Candle        `json:"candles"`
	MA         []MovingAverage `json:"ma"`
	PriceRange Range           `json:"priceRange"`
}

// View is a stored chart view with its payload left undecoded.
type View struct {
	Code      string          `json:"code"`
	View      string          `json:"view"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// SyncResult reports a manual sync.
type SyncResult struct {
	Code      string `json:"code"`
	Synced    bool   `json:"synced"`
	SyncError string `json:"syncError,omitempty"`
	Views     int    `json:"views"`
}

// Signal is a stored strategy signal.
type Signal struct {
	StrategyCode string   `json:"strategyCode"`
	Symbol       string   `json:"symbol"`
	TradeDate    string   `json:"tradeDate"`
	Allow        int      `json:"allow"`
	Confidence   float64  `json:"confidence"`
	Reasons      []string `json:"reasons"`
}
