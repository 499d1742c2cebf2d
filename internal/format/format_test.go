package format

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tablero-fiscal/tablero/internal/kpi"
)

func TestMissingRendersPlaceholder(t *testing.T) {
	for name, got := range map[string]string{
		"percent":  Percent(kpi.Missing, 1),
		"signed":   SignedPercent(kpi.Missing, 1),
		"millions": Millions(kpi.Missing),
		"currency": Currency(kpi.Missing),
		"compact":  Compact(kpi.Missing),
		"decimal":  Decimal(kpi.Missing, 2),
	} {
		assert.Equal(t, Placeholder, got, name)
	}
	assert.Equal(t, ToneMuted, Tone(kpi.Missing))
}

func TestPercentFormatting(t *testing.T) {
	assert.Equal(t, "12,3%", Percent(kpi.Of(12.345), 1))
	assert.Equal(t, "12,4%", Percent(kpi.Of(12.35), 1))
	assert.Equal(t, "1,01", Decimal(kpi.Of(1.005), 2))
	assert.Equal(t, "-2,6%", Percent(kpi.Of(-2.55), 1))
	assert.Equal(t, "+50,0%", SignedPercent(kpi.Of(50), 1))
	assert.Equal(t, "-4,00%", SignedPercent(kpi.Of(-4), 2))
	assert.Equal(t, "0,0%", SignedPercent(kpi.Of(0), 1))
	assert.Equal(t, "0,0%", SignedPercent(kpi.Of(-0.04), 1))
}

func TestZeroIsNotMissing(t *testing.T) {
	assert.Equal(t, "$0 M", Millions(kpi.Of(0)))
	assert.Equal(t, ToneNeutral, Tone(kpi.Of(0)))
}

func TestMoneyFormatting(t *testing.T) {
	assert.Equal(t, "$12.346 M", Millions(kpi.Of(12345.6)))
	assert.Equal(t, "+$50 M", SignedMillions(kpi.Of(50)))
	assert.Equal(t, "-$12.000 M", SignedMillions(kpi.Of(-12000)))
	assert.Equal(t, "$ 1.250.000", Currency(kpi.Of(1250000)))
}

func TestCompactScales(t *testing.T) {
	assert.Equal(t, "$4,1 Billones", Compact(kpi.Of(4.05e12)))
	assert.Equal(t, "$27 Mil Millones", Compact(kpi.Of(27e9)))
	assert.Equal(t, "$123 M", Compact(kpi.Of(123e6)))
	assert.Equal(t, "-$27 MM", SignedCompact(kpi.Of(-27e9)))
	assert.Equal(t, "+$1,5 B", SignedCompact(kpi.Of(1.5e12)))
}

func TestTones(t *testing.T) {
	assert.Equal(t, ToneSuccess, Tone(kpi.Of(0.1)))
	assert.Equal(t, ToneDanger, Tone(kpi.Of(-0.1)))
	assert.Equal(t, ToneSuccess, RatioTone(kpi.Of(1.5), CBTThreshold))
	assert.Equal(t, ToneDanger, RatioTone(kpi.Of(1.49), CBTThreshold))
}
