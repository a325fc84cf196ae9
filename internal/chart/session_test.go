package chart

import (
	"testing"
	"time"

	"stockdash/internal/domain"
)

func dates(days ...int) []time.Time {
	out := make([]time.Time, len(days))
	for i, d := range days {
		out[i] = time.Date(2024, 6, d, 0, 0, 0, 0, cst)
	}
	return out
}

func TestSessionBreaksWithDayBreaks(t *testing.T) {
	breaks := SessionBreaks(dates(3, 4, 5), true, "", cst)
	if len(breaks) != 5 {
		t.Fatalf("len(breaks) = %d, want 5", len(breaks))
	}

	want := []domain.SessionBreak{
		{Start: ms(2024, 6, 3, 11, 30), End: ms(2024, 6, 3, 13, 0), Gap: "0"},
		{Start: ms(2024, 6, 3, 15, 0), End: ms(2024, 6, 4, 9, 30), Gap: "1%"},
		{Start: ms(2024, 6, 4, 11, 30), End: ms(2024, 6, 4, 13, 0), Gap: "0"},
		{Start: ms(2024, 6, 4, 15, 0), End: ms(2024, 6, 5, 9, 30), Gap: "1%"},
		{Start: ms(2024, 6, 5, 11, 30), End: ms(2024, 6, 5, 13, 0), Gap: "0"},
	}
	for i := range want {
		if breaks[i] != want[i] {
			t.Errorf("breaks[%d] = %+v, want %+v", i, breaks[i], want[i])
		}
	}
	for i := 1; i < len(breaks); i++ {
		if breaks[i].Start < breaks[i-1].Start {
			t.Errorf("breaks not ordered at %d", i)
		}
	}
}

func TestSessionBreaksLunchOnly(t *testing.T) {
	breaks := SessionBreaks(dates(5, 3, 4), false, "", cst)
	if len(breaks) != 3 {
		t.Fatalf("len(breaks) = %d, want 3", len(breaks))
	}
	for _, b := range breaks {
		if b.Gap != LunchGap {
			t.Errorf("gap = %q, want %q", b.Gap, LunchGap)
		}
		if b.End-b.Start != int64(90*time.Minute/time.Millisecond) {
			t.Errorf("lunch break length = %d ms, want 90 minutes", b.End-b.Start)
		}
	}
	if breaks[0].Start != ms(2024, 6, 3, 11, 30) {
		t.Errorf("first break starts at %d, want June 3", breaks[0].Start)
	}
}

func TestSessionBreaksEdges(t *testing.T) {
	if got := SessionBreaks(nil, true, "", cst); len(got) != 0 {
		t.Errorf("SessionBreaks(nil) = %v, want empty", got)
	}
	if got := SessionBreaks(dates(3), true, "", cst); len(got) != 1 {
		t.Errorf("one date gave %d breaks, want 1", len(got))
	}
	got := SessionBreaks(dates(3, 4), true, "2%", cst)
	if len(got) != 3 || got[1].Gap != "2%" {
		t.Errorf("custom gap breaks = %+v", got)
	}
}

func TestTradingDates(t *testing.T) {
	bars := []domain.CanonicalBar{
		{Timestamp: ms(2024, 6, 4, 10, 0)},
		{Timestamp: ms(2024, 6, 3, 10, 0)},
		{Timestamp: ms(2024, 6, 4, 14, 0)},
	}
	got := TradingDates(bars, cst)
	want := dates(3, 4)
	if len(got) != len(want) {
		t.Fatalf("TradingDates = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("TradingDates[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFilterSessionHours(t *testing.T) {
	bars := []domain.CanonicalBar{
		{Timestamp: ms(2024, 6, 3, 9, 25)},
		{Timestamp: ms(2024, 6, 3, 9, 30)},
		{Timestamp: ms(2024, 6, 3, 12, 0)},
		{Timestamp: ms(2024, 6, 3, 15, 0)},
		{Timestamp: ms(2024, 6, 3, 15, 5)},
	}
	got := FilterSessionHours(bars, cst)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Timestamp != ms(2024, 6, 3, 9, 30) || got[2].Timestamp != ms(2024, 6, 3, 15, 0) {
		t.Errorf("filtered = %+v", got)
	}
}
