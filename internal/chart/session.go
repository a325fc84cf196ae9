package chart

import (
	"sort"
	"time"

	"stockdash/internal/domain"
	"stockdash/internal/util"
)

// LunchGap is the gap hint for the midday recess.
const LunchGap = "0"

// DefaultDayGap is the gap hint for overnight breaks.
const DefaultDayGap = "1%"

// TradingDates returns the distinct local dates (midnight) covered by bars,
// ascending.
func TradingDates(bars []domain.CanonicalBar, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, b := range bars {
		y, m, d := time.UnixMilli(b.Timestamp).In(loc).Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// SessionBreaks returns the intervals a time axis should collapse: one
// lunch recess per date and, when includeDayBreaks is set, one overnight
// break between each pair of adjacent dates. Breaks are ordered by start.
// An empty dayGap selects DefaultDayGap.
func SessionBreaks(dates []time.Time, includeDayBreaks bool, dayGap string, loc *time.Location) []domain.SessionBreak {
	if len(dates) == 0 {
		return []domain.SessionBreak{}
	}
	if dayGap == "" {
		dayGap = DefaultDayGap
	}
	cal := util.NewTradingCalendar(loc)

	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	uniq := sorted[:1]
	for _, d := range sorted[1:] {
		if !d.Equal(uniq[len(uniq)-1]) {
			uniq = append(uniq, d)
		}
	}
	sorted = uniq

	out := make([]domain.SessionBreak, 0, 2*len(sorted))
	for i, d := range sorted {
		if includeDayBreaks && i > 0 {
			out = append(out, domain.SessionBreak{
				Start: cal.At(sorted[i-1], util.AfternoonClose).UnixMilli(),
				End:   cal.At(d, util.MorningOpen).UnixMilli(),
				Gap:   dayGap,
			})
		}
		out = append(out, domain.SessionBreak{
			Start: cal.At(d, util.MorningClose).UnixMilli(),
			End:   cal.At(d, util.AfternoonOpen).UnixMilli(),
			Gap:   LunchGap,
		})
	}
	return out
}

// FilterSessionHours keeps bars stamped between the morning open and the
// afternoon close of their local day, bounds inclusive.
func FilterSessionHours(bars []domain.CanonicalBar, loc *time.Location) []domain.CanonicalBar {
	cal := util.NewTradingCalendar(loc)
	out := make([]domain.CanonicalBar, 0, len(bars))
	for _, b := range bars {
		if cal.InSession(time.UnixMilli(b.Timestamp)) {
			out = append(out, b)
		}
	}
	return out
}
