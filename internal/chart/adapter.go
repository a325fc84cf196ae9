// Package chart turns upstream stock records into canonical bars and derives
// the session breaks and metrics the charts plot.
package chart

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"stockdash/internal/domain"
)

// Records carries exactly one upstream record shape, selected by Kind.
type Records struct {
	Kind       domain.SourceKind
	Quotes     []domain.Quote
	Trends     []domain.Trend
	Klines     []domain.Kline
	MinuteBars []domain.MinuteBar
}

// Adapt converts r into canonical bars sorted ascending by timestamp.
func Adapt(r Records, loc *time.Location) []domain.CanonicalBar {
	switch r.Kind {
	case domain.SourceTick:
		return FromQuotes(r.Quotes, loc)
	case domain.SourceTrend:
		return FromTrends(r.Trends, loc)
	case domain.SourceMinute:
		return FromMinuteBars(r.MinuteBars, loc)
	case domain.SourceDaily:
		return FromKlines(r.Klines, loc)
	}
	return nil
}

// FromQuotes adapts tick snapshots. Each snapshot becomes a flat bar at its
// latest price.
func FromQuotes(quotes []domain.Quote, loc *time.Location) []domain.CanonicalBar {
	out := make([]domain.CanonicalBar, 0, len(quotes))
	for _, q := range quotes {
		ts, ok := ParseTime(q.SnapshotTime, loc)
		if !ok {
			continue
		}
		out = append(out, flatBar(ts, q.LatestPrice.Float(), q.Volume.Float(), q.VolumeAmount.Float(), domain.SourceTick))
	}
	return normalize(out)
}

// FromTrends adapts minute trend points.
func FromTrends(trends []domain.Trend, loc *time.Location) []domain.CanonicalBar {
	out := make([]domain.CanonicalBar, 0, len(trends))
	for _, tr := range trends {
		ts, ok := ParseTime(tr.Datetime, loc)
		if !ok {
			continue
		}
		out = append(out, flatBar(ts, tr.Price.Float(), tr.Volume.Float(), tr.Amount.Float(), domain.SourceTrend))
	}
	return normalize(out)
}

// FromMinuteBars adapts minute OHLC bars.
func FromMinuteBars(bars []domain.MinuteBar, loc *time.Location) []domain.CanonicalBar {
	out := make([]domain.CanonicalBar, 0, len(bars))
	for _, b := range bars {
		ts, ok := ParseTime(b.Datetime, loc)
		if !ok {
			continue
		}
		out = append(out, ohlcBar(ts, b.Open.Float(), b.Close.Float(), b.High.Float(), b.Low.Float(),
			b.Volume.Float(), b.Amount.Float(), domain.SourceMinute))
	}
	return normalize(out)
}

// FromKlines adapts candlestick bars.
func FromKlines(klines []domain.Kline, loc *time.Location) []domain.CanonicalBar {
	out := make([]domain.CanonicalBar, 0, len(klines))
	for _, k := range klines {
		ts, ok := ParseTime(k.Date, loc)
		if !ok {
			continue
		}
		out = append(out, ohlcBar(ts, k.Open.Float(), k.Close.Float(), k.High.Float(), k.Low.Float(),
			k.Volume.Float(), k.Amount.Float(), domain.SourceDaily))
	}
	return normalize(out)
}

func flatBar(ts int64, price, volume, amount float64, kind domain.SourceKind) domain.CanonicalBar {
	return domain.CanonicalBar{
		Timestamp: ts,
		Open:      price,
		Close:     price,
		High:      price,
		Low:       price,
		Volume:    toVolume(volume),
		Amount:    amount,
		Kind:      kind,
	}
}

// ohlcBar fills a missing open/high/low from close so a bar with only a
// close price still plots.
func ohlcBar(ts int64, open, close, high, low, volume, amount float64, kind domain.SourceKind) domain.CanonicalBar {
	if open == 0 {
		open = close
	}
	if high == 0 {
		high = math.Max(open, close)
	}
	if low == 0 {
		low = math.Min(open, close)
	}
	return domain.CanonicalBar{
		Timestamp: ts,
		Open:      open,
		Close:     close,
		High:      high,
		Low:       low,
		Volume:    toVolume(volume),
		Amount:    amount,
		Kind:      kind,
	}
}

func toVolume(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Round(v))
}

// normalize sorts bars by timestamp and collapses duplicates, keeping the
// record that appeared last in the input.
func normalize(bars []domain.CanonicalBar) []domain.CanonicalBar {
	if len(bars) == 0 {
		return []domain.CanonicalBar{}
	}
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp < bars[j].Timestamp
	})
	out := bars[:1]
	for _, b := range bars[1:] {
		if b.Timestamp == out[len(out)-1].Timestamp {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

var timeLayouts = []string{
	time.DateTime,
	"2006-01-02 15:04",
	time.DateOnly,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"20060102",
}

// ParseTime parses a backend time field into epoch milliseconds. It accepts
// RFC 3339, naive date/datetime layouts read in loc, and epoch seconds or
// milliseconds.
func ParseTime(s string, loc *time.Location) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixMilli(), true
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UnixMilli(), true
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		// Epoch seconds stay below 1e11 until the year 5138.
		if n < 1e11 {
			return n * 1000, true
		}
		return n, true
	}
	return 0, false
}

// AggregateDaily groups intraday bars by local calendar day into daily bars
// stamped at local midnight.
func AggregateDaily(bars []domain.CanonicalBar, loc *time.Location) []domain.CanonicalBar {
	if loc == nil {
		loc = time.Local
	}
	var out []domain.CanonicalBar
	var cur *domain.CanonicalBar
	for _, b := range bars {
		y, m, d := time.UnixMilli(b.Timestamp).In(loc).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc).UnixMilli()
		if cur == nil || cur.Timestamp != day {
			out = append(out, domain.CanonicalBar{
				Timestamp: day,
				Open:      b.Open,
				Close:     b.Close,
				High:      b.High,
				Low:       b.Low,
				Kind:      domain.SourceDaily,
			})
			cur = &out[len(out)-1]
		}
		cur.Close = b.Close
		cur.High = math.Max(cur.High, b.High)
		cur.Low = math.Min(cur.Low, b.Low)
		cur.Volume += b.Volume
		cur.Amount += b.Amount
	}
	if out == nil {
		return []domain.CanonicalBar{}
	}
	return out
}
