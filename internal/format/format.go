// Package format renders KPI figures for the es-AR locale.
package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/tablero-fiscal/tablero/internal/kpi"
)

// Placeholder is shown instead of a missing figure.
const Placeholder = "—"

// NoData labels a figure withheld because its inputs are incomplete.
const NoData = "Sin datos"

// Locale is the display locale of every dashboard.
var Locale = language.MustParse("es-AR")

var printer = message.NewPrinter(Locale)

// round rounds the shortest decimal form of v half away from zero, so 12.35 gives 12.4
// and 1.005 gives 1.01. ICU-backed Intl.NumberFormat rounds the same way; toFixed does not.
func round(v float64, digits int) float64 {
	return decimal.NewFromFloat(v).Round(int32(digits)).InexactFloat64()
}

func decimalString(v float64, digits int) string {
	r := round(v, digits)
	if r == 0 {
		r = 0 // drop negative zero
	}
	return printer.Sprint(number.Decimal(r, number.MinFractionDigits(digits), number.MaxFractionDigits(digits)))
}

func signFor(v float64, digits int) string {
	if round(v, digits) > 0 {
		return "+"
	}
	return ""
}

// Decimal formats v with a fixed number of fraction digits.
func Decimal(v kpi.Value, digits int) string {
	f, ok := v.Get()
	if !ok {
		return Placeholder
	}
	return decimalString(f, digits)
}

// Integer formats v with no fraction digits.
func Integer(v kpi.Value) string {
	return Decimal(v, 0)
}

// Percent formats v as "12,3%".
func Percent(v kpi.Value, digits int) string {
	f, ok := v.Get()
	if !ok {
		return Placeholder
	}
	return decimalString(f, digits) + "%"
}

// SignedPercent formats v as "+12,3%" or "-4,0%"; zero carries no sign.
func SignedPercent(v kpi.Value, digits int) string {
	f, ok := v.Get()
	if !ok {
		return Placeholder
	}
	return signFor(f, digits) + decimalString(f, digits) + "%"
}

// Millions formats an amount already expressed in millions as "$1.234 M".
func Millions(v kpi.Value) string {
	f, ok := v.Get()
	if !ok {
		return Placeholder
	}
	return money(f, 0) + " M"
}

// SignedMillions is Millions with an explicit sign.
func SignedMillions(v kpi.Value) string {
	f, ok := v.Get()
	if !ok {
		return Placeholder
	}
	return signFor(f, 0) + money(f, 0) + " M"
}

// Currency formats pesos as "$ 1.234.567".
func Currency(v kpi.Value) string {
	f, ok := v.Get()
	if !ok {
		return Placeholder
	}
	if round(f, 0) < 0 {
		return "-$ " + decimalString(math.Abs(f), 0)
	}
	return "$ " + decimalString(f, 0)
}

// Compact scales pesos into Billones, Mil Millones or millions.
func Compact(v kpi.Value) string {
	f, ok := v.Get()
	if !ok {
		return Placeholder
	}
	return compact(f)
}

// SignedCompact is Compact with an explicit sign and short unit names.
func SignedCompact(v kpi.Value) string {
	f, ok := v.Get()
	if !ok {
		return Placeholder
	}
	out := compact(f)
	out = strings.Replace(out, " Billones", " B", 1)
	out = strings.Replace(out, " Mil Millones", " MM", 1)
	if f > 0 {
		return "+" + out
	}
	return out
}

func compact(f float64) string {
	abs := math.Abs(f)
	switch {
	case abs >= 1e12:
		return money(f/1e12, 1) + " Billones"
	case abs >= 1e9:
		return money(f/1e9, 0) + " Mil Millones"
	default:
		return money(f/1e6, 0) + " M"
	}
}

func money(f float64, digits int) string {
	if round(f, digits) < 0 {
		return "-$" + decimalString(math.Abs(f), digits)
	}
	return "$" + decimalString(f, digits)
}

// Tone classes used by KPI cards.
const (
	ToneSuccess = "success"
	ToneDanger  = "danger"
	ToneNeutral = "neutral"
	ToneMuted   = "muted"
)

// Tone colours a variation: positive success, negative danger, zero neutral.
func Tone(v kpi.Value) string {
	f, ok := v.Get()
	switch {
	case !ok:
		return ToneMuted
	case f > 0:
		return ToneSuccess
	case f < 0:
		return ToneDanger
	default:
		return ToneNeutral
	}
}

// CBTThreshold is the ratio of average salary to the basic basket considered healthy.
const CBTThreshold = 1.5

// RatioTone is success at or above threshold and danger below it.
func RatioTone(v kpi.Value, threshold float64) string {
	f, ok := v.Get()
	switch {
	case !ok:
		return ToneMuted
	case f >= threshold:
		return ToneSuccess
	default:
		return ToneDanger
	}
}
