package chart

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"stockdash/internal/domain"
)

// MinDeviation is the half-range, as a fraction of previous close, of a
// symmetric axis over a flat series.
const MinDeviation = 0.01

// Range is a price-axis interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Marker is a labelled price point.
type Marker struct {
	Timestamp int64   `json:"t"`
	Price     float64 `json:"price"`
}

// PreviousCloseFromTrend recovers the prior close from a trend point's price
// and percent change. It returns price when the divisor is zero.
func PreviousCloseFromTrend(price, pct float64) float64 {
	div := 1 + pct/100
	if div == 0 || math.IsNaN(div) || math.IsInf(div, 0) {
		return price
	}
	return price / div
}

// PreviousCloseFromQuote returns previousClosePrice, falling back to the
// open price.
func PreviousCloseFromQuote(q domain.Quote) float64 {
	if q.PreviousClosePrice > 0 {
		return q.PreviousClosePrice.Float()
	}
	return q.OpenPrice.Float()
}

// SymmetricRange returns an axis centred on previousClose wide enough for
// the largest deviation among bars, widened by 10%. With no deviation at
// all MinDeviation is used instead. A zero previousClose falls back to the
// padded data range.
func SymmetricRange(bars []domain.CanonicalBar, previousClose float64) Range {
	if previousClose <= 0 {
		return PaddedRange(bars, 0.05)
	}
	maxDev := 0.0
	for _, b := range bars {
		for _, p := range [2]float64{b.High, b.Low} {
			if p <= 0 {
				continue
			}
			maxDev = math.Max(maxDev, math.Abs(p-previousClose)/previousClose)
		}
	}
	if maxDev == 0 {
		maxDev = MinDeviation
	}
	dev := maxDev * 1.1
	return Range{
		Min: Round2(previousClose * (1 - dev)),
		Max: Round2(previousClose * (1 + dev)),
	}
}

// PaddedRange spans the lowest low to the highest high, padded on both sides
// by pad times the span.
func PaddedRange(bars []domain.CanonicalBar, pad float64) Range {
	var highs, lows []float64
	for _, b := range bars {
		if b.High > 0 {
			highs = append(highs, b.High)
		}
		if b.Low > 0 {
			lows = append(lows, b.Low)
		}
	}
	if len(highs) == 0 || len(lows) == 0 {
		return Range{}
	}
	hi, lo := floats.Max(highs), floats.Min(lows)
	if lo > hi {
		lo, hi = hi, lo
	}
	span := (hi - lo) * pad
	return Range{Min: Round2(lo - span), Max: Round2(hi + span)}
}

// Extremes returns the highest and lowest price points of bars. Ties keep
// the earliest bar.
func Extremes(bars []domain.CanonicalBar) (high, low Marker, ok bool) {
	for _, b := range bars {
		if b.High <= 0 || b.Low <= 0 {
			continue
		}
		if !ok || b.High > high.Price {
			high = Marker{Timestamp: b.Timestamp, Price: b.High}
		}
		if !ok || b.Low < low.Price {
			low = Marker{Timestamp: b.Timestamp, Price: b.Low}
		}
		ok = true
	}
	return high, low, ok
}
