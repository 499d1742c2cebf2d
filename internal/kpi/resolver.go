package kpi

import (
	"sort"

	"github.com/tablero-fiscal/tablero/internal/dataset"
)

// Origin records where a derived field came from.
type Origin string

// Field origins.
const (
	OriginPrecomputed Origin = "precomputed"
	OriginDerived     Origin = "derived"
	OriginMissing     Origin = "missing"
)

// Origins tracks the origin of each variation field of a metric.
type Origins struct {
	VarNominal  Origin `json:"var_nominal"`
	VarReal     Origin `json:"var_real"`
	DiffNominal Origin `json:"diff_nominal"`
	DiffReal    Origin `json:"diff_real"`
}

// MetricView is one metric resolved for a period.
type MetricView struct {
	Name             string  `json:"name"`
	Current          Value   `json:"current"`
	Previous         Value   `json:"previous"`
	Real             Value   `json:"real"`
	RealPrevious     Value   `json:"real_previous"`
	VarNominal       Value   `json:"var_nominal"`
	VarReal          Value   `json:"var_real"`
	DiffNominal      Value   `json:"diff_nominal"`
	DiffReal         Value   `json:"diff_real"`
	CoverageCurrent  Value   `json:"coverage_current"`
	CoveragePrevious Value   `json:"coverage_previous"`
	Incomplete       bool    `json:"incomplete"`
	InflationMissing bool    `json:"inflation_missing"`
	Origins          Origins `json:"origins"`
}

// PersonalView is the salary summary attached to a period.
type PersonalView struct {
	SalaryRealVar Value  `json:"salary_real_var"`
	CBTRatio      Value  `json:"cbt_ratio"`
	CBTValue      Value  `json:"cbt_value"`
	PreviousLabel string `json:"previous_label,omitempty"`
}

// View is the render-ready KPI structure for one period. It is built fresh for every
// selection and never mutated afterwards.
type View struct {
	Period       dataset.Period        `json:"period"`
	Label        string                `json:"label"`
	PreviousID   string                `json:"previous_id"`
	HasPrevious  bool                  `json:"has_previous"`
	InflationYoY Value                 `json:"inflation_yoy"`
	Metrics      map[string]MetricView `json:"metrics"`
	Personal     *PersonalView         `json:"personal,omitempty"`
}

// Metric returns the named metric, or an all-missing view when the period lacks it.
func (v View) Metric(name string) MetricView {
	if m, ok := v.Metrics[name]; ok {
		return m
	}
	return missingMetric(name)
}

// MetricNames lists the resolved metrics in a stable order.
func (v View) MetricNames() []string {
	names := make([]string, 0, len(v.Metrics))
	for name := range v.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options tune resolution per page.
type Options struct {
	// Metrics restricts resolution to the named metrics. Empty resolves every metric
	// present in the current record.
	Metrics []string
	// EmbeddedPrevious falls back to the record's own prev/real_prev figures when the
	// previous-year record is absent.
	EmbeddedPrevious bool
}

// Resolve builds the KPI view for periodID with default options.
func Resolve(ds *dataset.Dataset, periodID string) (View, error) {
	return ResolveWith(ds, periodID, Options{})
}

// ResolveWith builds the KPI view for periodID.
func ResolveWith(ds *dataset.Dataset, periodID string, opts Options) (View, error) {
	current, ok := ds.Record(periodID)
	if !ok {
		return View{}, &NotFoundError{PeriodID: periodID}
	}
	period, ok := ds.Period(periodID)
	if !ok {
		return View{}, &NotFoundError{PeriodID: periodID}
	}

	view := View{
		Period:       period,
		Label:        current.KPI.Meta.Periodo,
		InflationYoY: FromPtr(current.KPI.Meta.InflationYoY),
		Metrics:      make(map[string]MetricView),
	}
	if view.Label == "" {
		view.Label = period.Display()
	}

	var previous *dataset.PeriodRecord
	if prevID, err := dataset.PreviousYear(periodID); err == nil {
		view.PreviousID = prevID
		if rec, ok := ds.Record(prevID); ok {
			previous = &rec
			view.HasPrevious = true
		}
	}

	names := opts.Metrics
	if len(names) == 0 {
		for name := range current.KPI.Metrics {
			names = append(names, name)
		}
	}
	for _, name := range names {
		cur, ok := current.Metric(name)
		if !ok {
			view.Metrics[name] = missingMetric(name)
			continue
		}
		var prev *dataset.MetricRecord
		if previous != nil {
			if rec, ok := previous.Metric(name); ok {
				prev = &rec
			}
		}
		view.Metrics[name] = resolveMetric(name, cur, prev, view.InflationYoY, opts)
	}

	if wage, ok := view.Metrics[dataset.MetricWageBill]; ok {
		view.Metrics[dataset.MetricWageBill] = withCoverage(wage, current, previous)
	}

	if p := current.KPI.Personal; p != nil {
		view.Personal = &PersonalView{
			SalaryRealVar: FromPtr(p.SalaryRealVar),
			CBTRatio:      FromPtr(p.CBTRatio),
			CBTValue:      FromPtr(p.CBTValue),
			PreviousLabel: p.PreviousLabel,
		}
	}
	return view, nil
}

func resolveMetric(name string, cur dataset.MetricRecord, prev *dataset.MetricRecord, inflation Value, opts Options) MetricView {
	mv := MetricView{
		Name:             name,
		Current:          FromPtr(cur.Current),
		Previous:         Missing,
		Real:             FromPtr(cur.Real),
		RealPrevious:     Missing,
		Incomplete:       cur.Incomplete,
		InflationMissing: cur.InflationMissing,
	}
	switch {
	case prev != nil:
		mv.Previous = FromPtr(prev.Current)
		mv.RealPrevious = FromPtr(prev.Real)
	case opts.EmbeddedPrevious:
		mv.Previous = FromPtr(cur.Prev)
		mv.RealPrevious = FromPtr(cur.RealPrev)
	}

	mv.VarNominal, mv.Origins.VarNominal = pick(cur.VarNominal, func() Value {
		return Variation(mv.Current, mv.Previous)
	})
	mv.DiffNominal, mv.Origins.DiffNominal = pick(cur.DiffNominal, func() Value {
		return mv.Current.Sub(mv.Previous)
	})
	mv.VarReal, mv.Origins.VarReal = pick(cur.VarReal, func() Value {
		if v := Variation(mv.Real, mv.RealPrevious); v.Valid() {
			return v
		}
		return RealVariation(mv.VarNominal, inflation)
	})
	mv.DiffReal, mv.Origins.DiffReal = pick(cur.DiffReal, func() Value {
		return mv.Real.Sub(mv.RealPrevious)
	})

	if mv.Incomplete {
		mv.VarNominal, mv.Origins.VarNominal = Missing, OriginMissing
		mv.DiffNominal, mv.Origins.DiffNominal = Missing, OriginMissing
		mv.VarReal, mv.Origins.VarReal = Missing, OriginMissing
		mv.DiffReal, mv.Origins.DiffReal = Missing, OriginMissing
	}
	if mv.InflationMissing {
		mv.VarReal, mv.Origins.VarReal = Missing, OriginMissing
		mv.DiffReal, mv.Origins.DiffReal = Missing, OriginMissing
	}
	return mv
}

func pick(precomputed *float64, derive func() Value) (Value, Origin) {
	if v := FromPtr(precomputed); v.Valid() {
		return v, OriginPrecomputed
	}
	if v := derive(); v.Valid() {
		return v, OriginDerived
	}
	return Missing, OriginMissing
}

// withCoverage fills the wage-bill coverage shares. Supplied cobertura figures win;
// otherwise the share is derived from the period's revenue. Incomplete periods show none.
func withCoverage(wage MetricView, current dataset.PeriodRecord, previous *dataset.PeriodRecord) MetricView {
	cur, _ := current.Metric(dataset.MetricWageBill)
	wage.CoverageCurrent = FromPtr(cur.CoverageCurrent)
	if wage.CoverageCurrent.IsMissing() {
		wage.CoverageCurrent = recordCoverage(current)
	}
	wage.CoveragePrevious = FromPtr(cur.CoveragePrev)
	if wage.CoveragePrevious.IsMissing() && previous != nil {
		wage.CoveragePrevious = recordCoverage(*previous)
	}
	if wage.Incomplete {
		wage.CoverageCurrent = Missing
	}
	return wage
}

func recordCoverage(rec dataset.PeriodRecord) Value {
	revenue, ok := rec.Metric(dataset.MetricRevenue)
	if !ok {
		return Missing
	}
	wage, ok := rec.Metric(dataset.MetricWageBill)
	if !ok || wage.Incomplete {
		return Missing
	}
	total, wagebill := FromPtr(revenue.Current), FromPtr(wage.Current)
	if total.IsMissing() || wagebill.IsMissing() || total.Float() <= 0 {
		return Missing
	}
	return Of(Coverage(wagebill.Float(), total.Float(), false).WagebillPct)
}

func missingMetric(name string) MetricView {
	return MetricView{
		Name:             name,
		Current:          Missing,
		Previous:         Missing,
		Real:             Missing,
		RealPrevious:     Missing,
		VarNominal:       Missing,
		VarReal:          Missing,
		DiffNominal:      Missing,
		DiffReal:         Missing,
		CoverageCurrent:  Missing,
		CoveragePrevious: Missing,
		Origins: Origins{
			VarNominal:  OriginMissing,
			VarReal:     OriginMissing,
			DiffNominal: OriginMissing,
			DiffReal:    OriginMissing,
		},
	}
}
