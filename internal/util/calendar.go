package util

import (
	"time"
)

// DefaultMarketZone is the IANA zone of the Shanghai and Shenzhen exchanges.
const DefaultMarketZone = "Asia/Shanghai"

// Clock is a wall-clock time of day in the market zone.
type Clock struct {
	Hour, Minute int
}

// Offset returns the clock as a duration since local midnight.
func (c Clock) Offset() time.Duration {
	return time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute
}

// A-share session clock.
var (
	PreOpen        = Clock{9, 0}
	MorningOpen    = Clock{9, 30}
	MorningClose   = Clock{11, 30}
	AfternoonOpen  = Clock{13, 0}
	AfternoonClose = Clock{15, 0}
)

// LoadMarketLocation resolves an IANA zone name. An empty name selects
// DefaultMarketZone. When the zone database is unavailable the Shanghai
// zone falls back to a fixed UTC+8 offset.
func LoadMarketLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultMarketZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name == DefaultMarketZone {
			return time.FixedZone("CST", 8*3600), nil
		}
		return nil, err
	}
	return loc, nil
}

// TradingCalendar provides market-hours awareness for the A-share market:
// a morning session 09:30-11:30 and an afternoon session 13:00-15:00 on
// weekdays. Exchange holidays are not modelled.
type TradingCalendar struct {
	loc *time.Location
}

// NewTradingCalendar creates a TradingCalendar in loc. A nil loc selects
// DefaultMarketZone.
func NewTradingCalendar(loc *time.Location) *TradingCalendar {
	if loc == nil {
		loc, _ = LoadMarketLocation("")
	}
	return &TradingCalendar{loc: loc}
}

// Location returns the market zone.
func (tc *TradingCalendar) Location() *time.Location { return tc.loc }

// At returns the instant of clock c on the local date of t.
func (tc *TradingCalendar) At(t time.Time, c Clock) time.Time {
	y, m, d := t.In(tc.loc).Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, tc.loc)
}

// IsTradingDay reports whether t falls on a weekday in the market zone.
func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	switch t.In(tc.loc).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// IsMarketOpen returns whether the market is open at time t. Both session
// bounds are inclusive.
func (tc *TradingCalendar) IsMarketOpen(t time.Time) bool {
	if !tc.IsTradingDay(t) {
		return false
	}
	return tc.within(t, MorningOpen, MorningClose) || tc.within(t, AfternoonOpen, AfternoonClose)
}

// InSession reports whether t lies between the first open and the last
// close of its local day, lunch recess included.
func (tc *TradingCalendar) InSession(t time.Time) bool {
	return tc.within(t, MorningOpen, AfternoonClose)
}

func (tc *TradingCalendar) within(t time.Time, from, to Clock) bool {
	return !t.Before(tc.At(t, from)) && !t.After(tc.At(t, to))
}

// NextOpen returns the next session open at or after t.
func (tc *TradingCalendar) NextOpen(t time.Time) time.Time {
	return tc.next(t, MorningOpen, AfternoonOpen)
}

// NextClose returns the next session close at or after t.
func (tc *TradingCalendar) NextClose(t time.Time) time.Time {
	return tc.next(t, MorningClose, AfternoonClose)
}

func (tc *TradingCalendar) next(t time.Time, first, second Clock) time.Time {
	if tc.IsTradingDay(t) {
		if c := tc.At(t, first); !t.After(c) {
			return c
		}
		if c := tc.At(t, second); !t.After(c) {
			return c
		}
	}
	day := tc.At(t, Clock{})
	for {
		day = day.AddDate(0, 0, 1)
		if tc.IsTradingDay(day) {
			return tc.At(day, first)
		}
	}
}

// SessionDate returns the local date whose intraday data should be shown
// at now: the previous calendar day before the 09:00 pre-open, otherwise
// today. The result is local midnight.
func (tc *TradingCalendar) SessionDate(now time.Time) time.Time {
	day := tc.At(now, Clock{})
	if now.Before(tc.At(now, PreOpen)) {
		return day.AddDate(0, 0, -1)
	}
	return day
}
