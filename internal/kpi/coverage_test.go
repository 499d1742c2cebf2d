package kpi

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablero-fiscal/tablero/internal/dataset"
)

func TestCoverageZeroWagebill(t *testing.T) {
	share := Coverage(0, 200, false)
	assert.Equal(t, 0.0, share.WagebillPct)
	assert.Equal(t, 100.0, share.OtherPct)
	assert.Equal(t, 200.0, share.Other)
}

func TestCoverageIncompleteWagebill(t *testing.T) {
	share := Coverage(80, 200, true)
	assert.Equal(t, 0.0, share.Wagebill)
	assert.Equal(t, 100.0, share.OtherPct)
}

func TestCoverageBounds(t *testing.T) {
	cases := []struct{ wage, total float64 }{
		{40, 100}, {100, 100}, {150, 100}, {1, 1e9}, {5, 0}, {-3, 10},
	}
	for _, c := range cases {
		share := Coverage(c.wage, c.total, false)
		if share.WagebillPct < 0 || share.WagebillPct > 100 {
			t.Fatalf("coverage out of range for %+v: %v", c, share.WagebillPct)
		}
		if math.Abs(share.WagebillPct+share.OtherPct-100) > 1e-9 {
			t.Fatalf("shares must sum to 100 for %+v: %+v", c, share)
		}
	}
	assert.InDelta(t, 40.0, Coverage(40, 100, false).WagebillPct, 1e-9)
	assert.Equal(t, 100.0, Coverage(150, 100, false).WagebillPct)
}

func TestCoverageSeriesWindow(t *testing.T) {
	ds := fixture(t)
	points, err := CoverageSeries(ds, "2026-02", 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "Ene 26", points[0].Label)
	assert.InDelta(t, 40.0, points[0].WagebillPct, 1e-9)
	assert.Equal(t, 100.0, points[1].OtherPct, "incomplete wage bill shows the whole total as other")

	all, err := CoverageSeries(ds, "2026-02", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = CoverageSeries(ds, "2019-01", 12)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeriesKeepsLabelsAligned(t *testing.T) {
	ds := decode(t, `{"meta":{"available_periods":[{"id":"2026-02"},{"id":"2026-01"},{"id":"2026-03"}]},
		"data":{"2026-01":{"kpi":{"recaudacion":{"current":1}}},"2026-02":{"kpi":{"recaudacion":{"current":2}}}}}`)
	labels, values := Series(ds, CurrentOf(dataset.MetricRevenue))
	require.Len(t, values, len(labels))
	assert.Equal(t, []string{"Ene 26", "Feb 26", "Mar 26"}, labels)
	assert.True(t, values[2].IsMissing())
	assert.Equal(t, 2.0, values[1].Float())
}

func TestValueJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}{A: Of(1.5), B: Missing})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(raw))
	assert.True(t, Of(math.Inf(1)).IsMissing())
	assert.True(t, Variation(Of(1), Of(0)).IsMissing())
}
