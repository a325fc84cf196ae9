package chart

import (
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"

	"stockdash/internal/domain"
)

// DefaultMAWindows are the moving averages drawn on daily charts.
var DefaultMAWindows = []int{5, 10, 20}

// Round2 rounds v half away from zero to two decimals. NaN and Inf give 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// MovingAverage returns the n-bar simple moving average of closes. Entries
// before index n-1 are null, and n <= 0 yields an all-null series.
func MovingAverage(bars []domain.CanonicalBar, n int) []domain.NullFloat {
	out := make([]domain.NullFloat, len(bars))
	if n <= 0 || len(bars) < n {
		return out
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	for i := n - 1; i < len(closes); i++ {
		mean := floats.Sum(closes[i-n+1:i+1]) / float64(n)
		out[i] = domain.NullFloat{V: Round2(mean), Valid: true}
	}
	return out
}

// AveragePrice returns the running volume-weighted average price. While the
// cumulative volume is still zero the bar's close is used instead.
func AveragePrice(bars []domain.CanonicalBar) []float64 {
	out := make([]float64, len(bars))
	var cumAmount float64
	var cumVolume int64
	for i, b := range bars {
		cumAmount += b.Amount
		cumVolume += b.Volume
		if cumVolume > 0 {
			out[i] = cumAmount / float64(cumVolume)
		} else {
			out[i] = b.Close
		}
	}
	return out
}

// Directions classifies each close against the previous bar's close, and
// the first bar against previousClose.
func Directions(bars []domain.CanonicalBar, previousClose float64) []domain.Direction {
	out := make([]domain.Direction, len(bars))
	prev := previousClose
	for i, b := range bars {
		out[i] = compare(b.Close, prev)
		prev = b.Close
	}
	return out
}

// CandleDirections classifies each bar's close against its own open.
func CandleDirections(bars []domain.CanonicalBar) []domain.Direction {
	out := make([]domain.Direction, len(bars))
	for i, b := range bars {
		out[i] = compare(b.Close, b.Open)
	}
	return out
}

func compare(cur, prev float64) domain.Direction {
	switch {
	case cur > prev:
		return domain.DirectionUp
	case cur < prev:
		return domain.DirectionDown
	default:
		return domain.DirectionFlat
	}
}

// Aggregate totals a bar sequence against previousClose. Change percent is
// 0 when previousClose is 0. High and low consider positive prices only.
func Aggregate(bars []domain.CanonicalBar, previousClose float64) domain.SessionStats {
	stats := domain.SessionStats{PreviousClose: previousClose}
	if len(bars) == 0 {
		return stats
	}
	highs := make([]float64, 0, len(bars))
	lows := make([]float64, 0, len(bars))
	for _, b := range bars {
		stats.TotalVolume += b.Volume
		stats.TotalAmount += b.Amount
		if b.High > 0 {
			highs = append(highs, b.High)
		}
		if b.Low > 0 {
			lows = append(lows, b.Low)
		}
	}
	if len(highs) > 0 {
		stats.High = floats.Max(highs)
	}
	if len(lows) > 0 {
		stats.Low = floats.Min(lows)
	}
	stats.Latest = bars[len(bars)-1].Close
	stats.Change = stats.Latest - previousClose
	if previousClose != 0 {
		stats.ChangePercent = stats.Change / previousClose * 100
	}
	if math.IsNaN(stats.ChangePercent) || math.IsInf(stats.ChangePercent, 0) {
		stats.ChangePercent = 0
	}
	return stats
}

// Derive computes every per-bar metric for bars in one pass over the
// requested MA windows.
func Derive(bars []domain.CanonicalBar, previousClose float64, windows []int) domain.DerivedSeries {
	ds := domain.DerivedSeries{
		MA:        make([]domain.MASeries, 0, len(windows)),
		AvgPrice:  AveragePrice(bars),
		Direction: Directions(bars, previousClose),
	}
	for _, n := range windows {
		ds.MA = append(ds.MA, domain.MASeries{Window: n, Values: MovingAverage(bars, n)})
	}
	return ds
}
