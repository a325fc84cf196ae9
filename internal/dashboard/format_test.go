package dashboard

import (
	"math"
	"strings"
	"testing"
)

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{123456789, "1.2亿"},
		{12345, "1万"},
		{56789, "6万"},
		{999, "999"},
		{0, "0"},
		{-26000, "-3万"},
		{math.NaN(), "0"},
		{math.Inf(1), "0"},
	}
	for _, tt := range tests {
		if got := FormatVolume(tt.in); got != tt.want {
			t.Errorf("FormatVolume(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{123456789, "1.23亿"},
		{12345, "1.23万"},
		{99.5, "99.50"},
		{0, "0.00"},
		{math.NaN(), "0.00"},
	}
	for _, tt := range tests {
		if got := FormatAmount(tt.in); got != tt.want {
			t.Errorf("FormatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.01234, "1.234%"},
		{-0.5, "-50.000%"},
		{0, "0.000%"},
		{math.Inf(-1), "0.000%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatChangePercent(2.5); got != "2.50%" {
		t.Errorf("FormatChangePercent(2.5) = %q, want %q", got, "2.50%")
	}
}

func TestFormattersNeverEmitNonFinite(t *testing.T) {
	fns := map[string]func(float64) string{
		"volume":  FormatVolume,
		"amount":  FormatAmount,
		"percent": FormatPercent,
		"change":  FormatChange,
		"price":   FormatPrice,
	}
	for name, fn := range fns {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
			got := fn(v)
			if strings.Contains(got, "NaN") || strings.Contains(got, "Inf") {
				t.Errorf("%s(%v) = %q", name, v, got)
			}
		}
	}
}

func TestSignAndChange(t *testing.T) {
	if SignPrefix(1) != "+" || SignPrefix(0) != "" || SignPrefix(-1) != "" {
		t.Error("SignPrefix returned unexpected values")
	}
	if got := FormatChange(1.234); got != "+1.23" {
		t.Errorf("FormatChange(1.234) = %q, want +1.23", got)
	}
	if got := FormatChange(-0.5); got != "-0.50" {
		t.Errorf("FormatChange(-0.5) = %q, want -0.50", got)
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(0); got != "-" {
		t.Errorf("FormatPrice(0) = %q, want -", got)
	}
	if got := FormatPrice(12.3); got != "12.30" {
		t.Errorf("FormatPrice(12.3) = %q, want 12.30", got)
	}
}

func TestFormatInt(t *testing.T) {
	tests := map[int64]string{
		0:       "0",
		999:     "999",
		1234567: "1,234,567",
		-1234:   "-1,234",
	}
	for in, want := range tests {
		if got := FormatInt(in); got != want {
			t.Errorf("FormatInt(%d) = %q, want %q", in, got, want)
		}
	}
}
