package dashboard

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Chinese magnitude units.
const (
	unitYi  = 1e8 // 亿
	unitWan = 1e4 // 万
)

var intPrinter = message.NewPrinter(language.English)

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(finite(v)).StringFixed(places)
}

// FormatVolume renders a share count with 亿 (1 decimal) or 万 (no decimals)
// units.
func FormatVolume(v float64) string {
	v = finite(v)
	switch a := math.Abs(v); {
	case a >= unitYi:
		return fixed(v/unitYi, 1) + "亿"
	case a >= unitWan:
		return fixed(v/unitWan, 0) + "万"
	default:
		return fixed(v, 0)
	}
}

// FormatAmount renders a currency turnover with 亿 or 万 units and two
// decimals.
func FormatAmount(v float64) string {
	v = finite(v)
	switch a := math.Abs(v); {
	case a >= unitYi:
		return fixed(v/unitYi, 2) + "亿"
	case a >= unitWan:
		return fixed(v/unitWan, 2) + "万"
	default:
		return fixed(v, 2)
	}
}

// FormatPercent renders a fraction as a percentage with three decimals:
// 0.01234 becomes "1.234%".
func FormatPercent(fraction float64) string {
	return decimal.NewFromFloat(finite(fraction)).Mul(decimal.NewFromInt(100)).StringFixed(3) + "%"
}

// FormatChangePercent renders a value that is already a percentage with two
// decimals.
func FormatChangePercent(pct float64) string {
	return fixed(pct, 2) + "%"
}

// SignPrefix returns "+" for positive values and "" otherwise.
func SignPrefix(v float64) string {
	if finite(v) > 0 {
		return "+"
	}
	return ""
}

// FormatChange formats a signed price change as "+X.XX" or "-X.XX".
func FormatChange(v float64) string {
	return SignPrefix(v) + fixed(v, 2)
}

// FormatPrice formats a price with two decimals, or "-" for zero.
func FormatPrice(p float64) string {
	p = finite(p)
	if p == 0 {
		return "-"
	}
	return fixed(p, 2)
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	return intPrinter.Sprintf("%d", n)
}
