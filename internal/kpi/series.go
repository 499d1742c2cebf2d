package kpi

import "github.com/tablero-fiscal/tablero/internal/dataset"

// Selector extracts one figure from a period record.
type Selector func(dataset.PeriodRecord) Value

// CurrentOf selects a metric's current amount.
func CurrentOf(metric string) Selector {
	return func(rec dataset.PeriodRecord) Value {
		m, ok := rec.Metric(metric)
		if !ok {
			return Missing
		}
		return FromPtr(m.Current)
	}
}

// RealOf selects a metric's deflated amount.
func RealOf(metric string) Selector {
	return func(rec dataset.PeriodRecord) Value {
		m, ok := rec.Metric(metric)
		if !ok {
			return Missing
		}
		return FromPtr(m.Real)
	}
}

// Series walks the available periods in chronological order and returns equal-length
// label and value slices. Periods without a record contribute a missing point.
func Series(ds *dataset.Dataset, sel Selector) ([]string, []Value) {
	periods := ds.Periods()
	labels := make([]string, 0, len(periods))
	values := make([]Value, 0, len(periods))
	for _, p := range periods {
		labels = append(labels, p.ShortLabel())
		rec, ok := ds.Record(p.ID)
		if !ok {
			values = append(values, Missing)
			continue
		}
		values = append(values, sel(rec))
	}
	return labels, values
}

// Values converts optional snapshot figures to Values.
func Values(in []*float64) []Value {
	out := make([]Value, len(in))
	for i, p := range in {
		out[i] = FromPtr(p)
	}
	return out
}

// Floats converts Values to chart points, with nil marking a gap.
func Floats(in []Value) []*float64 {
	out := make([]*float64, len(in))
	for i, v := range in {
		out[i] = v.Ptr()
	}
	return out
}
