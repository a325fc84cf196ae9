package chart

import (
	"math"
	"testing"

	"stockdash/internal/domain"
)

func TestPreviousCloseFromTrend(t *testing.T) {
	if got := PreviousCloseFromTrend(11, 10); math.Abs(got-10) > 1e-9 {
		t.Errorf("PreviousCloseFromTrend(11, 10) = %v, want 10", got)
	}
	if got := PreviousCloseFromTrend(5, -100); got != 5 {
		t.Errorf("PreviousCloseFromTrend with zero divisor = %v, want 5", got)
	}
}

func TestPreviousCloseFromQuote(t *testing.T) {
	if got := PreviousCloseFromQuote(domain.Quote{PreviousClosePrice: 9, OpenPrice: 10}); got != 9 {
		t.Errorf("got %v, want 9", got)
	}
	if got := PreviousCloseFromQuote(domain.Quote{OpenPrice: 10}); got != 10 {
		t.Errorf("got %v, want open price 10", got)
	}
}

func TestSymmetricRange(t *testing.T) {
	r := SymmetricRange(closes(10, 10.5, 9.9), 10)
	// largest deviation 5%, widened to 5.5%
	if r.Min != 9.45 || r.Max != 10.55 {
		t.Errorf("SymmetricRange = %+v, want 9.45..10.55", r)
	}

	flat := SymmetricRange(closes(10, 10), 10)
	if flat.Min != 9.89 || flat.Max != 10.11 {
		t.Errorf("flat SymmetricRange = %+v, want 9.89..10.11", flat)
	}
}

func TestPaddedRange(t *testing.T) {
	r := PaddedRange(closes(10, 12, 11), 0.05)
	if r.Min != 9.9 || r.Max != 12.1 {
		t.Errorf("PaddedRange = %+v, want 9.9..12.1", r)
	}
	if empty := PaddedRange(nil, 0.05); empty != (Range{}) {
		t.Errorf("PaddedRange(nil) = %+v, want zero", empty)
	}
}

func TestExtremes(t *testing.T) {
	bars := closes(10, 12, 9, 12)
	hi, lo, ok := Extremes(bars)
	if !ok {
		t.Fatal("Extremes returned !ok")
	}
	if hi.Price != 12 || hi.Timestamp != 2 {
		t.Errorf("high = %+v, want 12 at t=2", hi)
	}
	if lo.Price != 9 || lo.Timestamp != 3 {
		t.Errorf("low = %+v, want 9 at t=3", lo)
	}
	if _, _, ok := Extremes(nil); ok {
		t.Error("Extremes(nil) should report !ok")
	}
}
