// Package dashboard shapes adapted bars into chart payloads and watch-list
// rows for the chart API and CLI.
package dashboard

import (
	"time"

	"stockdash/internal/chart"
	"stockdash/internal/domain"
)

// ViewOptions carries the per-deployment chart settings.
type ViewOptions struct {
	Location  *time.Location
	DayGap    string
	MAWindows []int
}

func (o ViewOptions) loc() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func (o ViewOptions) windows() []int {
	if len(o.MAWindows) == 0 {
		return chart.DefaultMAWindows
	}
	return o.MAWindows
}

// PricePoint is one sample on an intraday price line.
type PricePoint struct {
	T             int64   `json:"t"`
	Price         float64 `json:"price"`
	AvgPrice      float64 `json:"avgPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// VolumePoint is one volume bar with its colouring direction.
type VolumePoint struct {
	T         int64            `json:"t"`
	Volume    int64            `json:"volume"`
	Direction domain.Direction `json:"direction"`
}

// Markers are the labelled high and low points of a chart.
type Markers struct {
	High chart.Marker `json:"high"`
	Low  chart.Marker `json:"low"`
}

// StatsLabels are SessionStats rendered for display.
type StatsLabels struct {
	Latest        string `json:"latest"`
	Change        string `json:"change"`
	ChangePercent string `json:"changePercent"`
	Volume        string `json:"volume"`
	Amount        string `json:"amount"`
	High          string `json:"high"`
	Low           string `json:"low"`
}

// LabelStats formats s for display. The change percent carries a sign.
func LabelStats(s domain.SessionStats) StatsLabels {
	return StatsLabels{
		Latest:        FormatPrice(s.Latest),
		Change:        FormatChange(s.Change),
		ChangePercent: SignPrefix(s.ChangePercent) + FormatChangePercent(s.ChangePercent),
		Volume:        FormatVolume(float64(s.TotalVolume)),
		Amount:        FormatAmount(s.TotalAmount),
		High:          FormatPrice(s.High),
		Low:           FormatPrice(s.Low),
	}
}

// IntradayView is a single-session price chart.
type IntradayView struct {
	Code          string                `json:"code"`
	Date          string                `json:"date"`
	PreviousClose float64               `json:"previousClose"`
	Points        []PricePoint          `json:"points"`
	Volumes       []VolumePoint         `json:"volumes"`
	Breaks        []domain.SessionBreak `json:"breaks"`
	PriceRange    chart.Range           `json:"priceRange"`
	PercentRange  chart.Range           `json:"percentRange"`
	Markers       *Markers              `json:"markers,omitempty"`
	Stats         domain.SessionStats   `json:"stats"`
	Labels        StatsLabels           `json:"labels"`
}

// FiveDayView is a multi-session price chart.
type FiveDayView struct {
	Code          string                `json:"code"`
	Dates         []string              `json:"dates"`
	PreviousClose float64               `json:"previousClose"`
	Points        []PricePoint          `json:"points"`
	Volumes       []VolumePoint         `json:"volumes"`
	Breaks        []domain.SessionBreak `json:"breaks"`
	PriceRange    chart.Range           `json:"priceRange"`
	Stats         domain.SessionStats   `json:"stats"`
	Labels        StatsLabels           `json:"labels"`
}

// Candle is one daily bar with its display fields.
type Candle struct {
	T             int64            `json:"t"`
	Date          string           `json:"date"`
	Open          float64          `json:"open"`
	Close         float64          `json:"close"`
	High          float64          `json:"high"`
	Low           float64          `json:"low"`
	Volume        int64            `json:"volume"`
	Amount        float64          `json:"amount"`
	Change        float64          `json:"change"`
	ChangePercent float64          `json:"changePercent"`
	Direction     domain.Direction `json:"direction"`
	VolumeLabel   string           `json:"volumeLabel"`
}

// DailyView is a candlestick chart with moving averages.
type DailyView struct {
	Code       string            `json:"code"`
	Candles    []Candle          `json:"candles"`
	MA         []domain.MASeries `json:"ma"`
	PriceRange chart.Range       `json:"priceRange"`
}

func pricePoints(bars []domain.CanonicalBar, previousClose float64) []PricePoint {
	avg := chart.AveragePrice(bars)
	out := make([]PricePoint, len(bars))
	for i, b := range bars {
		p := PricePoint{T: b.Timestamp, Price: b.Close, AvgPrice: chart.Round2(avg[i])}
		p.Change = chart.Round2(b.Close - previousClose)
		if previousClose != 0 {
			p.ChangePercent = chart.Round2((b.Close - previousClose) / previousClose * 100)
		}
		out[i] = p
	}
	return out
}

func volumePoints(bars []domain.CanonicalBar, dirs []domain.Direction) []VolumePoint {
	out := make([]VolumePoint, len(bars))
	for i, b := range bars {
		out[i] = VolumePoint{T: b.Timestamp, Volume: b.Volume, Direction: dirs[i]}
	}
	return out
}

func percentRange(r chart.Range, previousClose float64) chart.Range {
	if previousClose == 0 {
		return chart.Range{}
	}
	return chart.Range{
		Min: chart.Round2((r.Min - previousClose) / previousClose * 100),
		Max: chart.Round2((r.Max - previousClose) / previousClose * 100),
	}
}

func dateStrings(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(time.DateOnly)
	}
	return out
}

// BuildIntraday shapes one session of intraday bars. Bars outside trading
// hours are dropped and only the lunch recess is collapsed.
func BuildIntraday(code string, bars []domain.CanonicalBar, previousClose float64, opts ViewOptions) IntradayView {
	loc := opts.loc()
	bars = chart.FilterSessionHours(bars, loc)
	dates := chart.TradingDates(bars, loc)

	v := IntradayView{
		Code:          code,
		PreviousClose: previousClose,
		Points:        pricePoints(bars, previousClose),
		Volumes:       volumePoints(bars, chart.Directions(bars, previousClose)),
		Breaks:        chart.SessionBreaks(dates, false, opts.DayGap, loc),
		PriceRange:    chart.SymmetricRange(bars, previousClose),
		Stats:         chart.Aggregate(bars, previousClose),
	}
	if len(dates) > 0 {
		v.Date = dates[len(dates)-1].Format(time.DateOnly)
	}
	v.PercentRange = percentRange(v.PriceRange, previousClose)
	if hi, lo, ok := chart.Extremes(bars); ok {
		v.Markers = &Markers{High: hi, Low: lo}
	}
	v.Labels = LabelStats(v.Stats)
	return v
}

// BuildFiveDay shapes several sessions of intraday bars with lunch and
// overnight breaks.
func BuildFiveDay(code string, bars []domain.CanonicalBar, previousClose float64, opts ViewOptions) FiveDayView {
	loc := opts.loc()
	bars = chart.FilterSessionHours(bars, loc)
	dates := chart.TradingDates(bars, loc)

	v := FiveDayView{
		Code:          code,
		Dates:         dateStrings(dates),
		PreviousClose: previousClose,
		Points:        pricePoints(bars, previousClose),
		Volumes:       volumePoints(bars, chart.Directions(bars, previousClose)),
		Breaks:        chart.SessionBreaks(dates, true, opts.DayGap, loc),
		PriceRange:    chart.PaddedRange(bars, 0.05),
		Stats:         chart.Aggregate(bars, previousClose),
	}
	v.Labels = LabelStats(v.Stats)
	return v
}

// BuildDaily shapes daily bars into candles. Each candle's change is
// measured against its own open and volume is coloured by candle direction.
func BuildDaily(code string, bars []domain.CanonicalBar, opts ViewOptions) DailyView {
	loc := opts.loc()
	dirs := chart.CandleDirections(bars)

	candles := make([]Candle, len(bars))
	for i, b := range bars {
		c := Candle{
			T:           b.Timestamp,
			Date:        time.UnixMilli(b.Timestamp).In(loc).Format(time.DateOnly),
			Open:        b.Open,
			Close:       b.Close,
			High:        b.High,
			Low:         b.Low,
			Volume:      b.Volume,
			Amount:      b.Amount,
			Change:      chart.Round2(b.Close - b.Open),
			Direction:   dirs[i],
			VolumeLabel: FormatVolume(float64(b.Volume)),
		}
		if b.Open != 0 {
			c.ChangePercent = chart.Round2((b.Close - b.Open) / b.Open * 100)
		}
		candles[i] = c
	}

	ds := chart.Derive(bars, 0, opts.windows())
	return DailyView{
		Code:       code,
		Candles:    candles,
		MA:         ds.MA,
		PriceRange: chart.PaddedRange(bars, 0.05),
	}
}
