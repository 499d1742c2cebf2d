package kpi

import (
	"math"

	"github.com/tablero-fiscal/tablero/internal/dataset"
)

// CoverageWindow is the number of periods the coverage chart spans.
const CoverageWindow = 12

// Share splits a revenue total into the wage bill and the remainder.
type Share struct {
	Wagebill    float64 `json:"wagebill"`
	Other       float64 `json:"other"`
	WagebillPct float64 `json:"wagebill_pct"`
	OtherPct    float64 `json:"other_pct"`
}

// Coverage computes the wage-bill share of total revenue. A zero, negative or incomplete
// wage bill yields a 0% wage bill and a 100% remainder.
func Coverage(wagebill, total float64, incomplete bool) Share {
	if math.IsNaN(wagebill) || math.IsNaN(total) {
		return Share{OtherPct: 100}
	}
	if incomplete || wagebill <= 0 {
		return Share{Wagebill: 0, Other: math.Max(0, total), WagebillPct: 0, OtherPct: 100}
	}
	other := math.Max(0, total-wagebill)
	pct := wagebill / (wagebill + other) * 100
	pct = math.Min(100, math.Max(0, pct))
	return Share{Wagebill: wagebill, Other: other, WagebillPct: pct, OtherPct: 100 - pct}
}

// CoveragePoint is one bar of the coverage chart.
type CoveragePoint struct {
	Period dataset.Period `json:"period"`
	Label  string         `json:"label"`
	Share
}

// CoverageSeries builds the coverage chart ending at periodID: up to window available
// periods, chronological, skipping periods without data. Amounts are in millions in the
// snapshot and are returned in pesos.
func CoverageSeries(ds *dataset.Dataset, periodID string, window int) ([]CoveragePoint, error) {
	if _, ok := ds.Record(periodID); !ok {
		return nil, &NotFoundError{PeriodID: periodID}
	}
	if window <= 0 {
		window = CoverageWindow
	}
	periods := ds.Periods()
	idx := -1
	for i, p := range periods {
		if p.ID == periodID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &NotFoundError{PeriodID: periodID}
	}
	start := idx - window + 1
	if start < 0 {
		start = 0
	}

	points := make([]CoveragePoint, 0, idx-start+1)
	for _, p := range periods[start : idx+1] {
		rec, ok := ds.Record(p.ID)
		if !ok {
			continue
		}
		revenue, _ := rec.Metric(dataset.MetricRevenue)
		wage, _ := rec.Metric(dataset.MetricWageBill)
		total := FromPtr(revenue.Current).Scale(1e6).Float()
		wagebill := FromPtr(wage.Current).Scale(1e6).Float()
		points = append(points, CoveragePoint{
			Period: p,
			Label:  p.ShortLabel(),
			Share:  Coverage(wagebill, total, wage.Incomplete),
		})
	}
	return points, nil
}
