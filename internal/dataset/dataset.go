package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Metric names tracked across snapshots.
const (
	MetricRevenue       = "recaudacion"
	MetricWageBill      = "masa_salarial"
	MetricAverageSalary = "salario_promedio"
	MetricHeadCount     = "empleados"
)

// Dataset is one decoded snapshot. It must not be mutated after Decode returns.
type Dataset struct {
	Meta            Meta                    `json:"meta"`
	Data            map[string]PeriodRecord `json:"data"`
	GlobalCharts    *GlobalCharts           `json:"global_charts,omitempty"`
	SecondaryCharts *SecondaryCharts        `json:"secondary_charts,omitempty"`
	Annual          *Annual                 `json:"annual,omitempty"`
	PersonalCharts  *PersonalCharts         `json:"-"`
}

// Meta lists the selectable periods.
type Meta struct {
	AvailablePeriods Periods `json:"available_periods"`
	DefaultPeriodID  string  `json:"default_period_id,omitempty"`
}

// PeriodRecord holds one period's raw figures.
type PeriodRecord struct {
	KPI    KPIBlock     `json:"kpi"`
	Charts RecordCharts `json:"charts"`
}

// Metric returns the named metric record; absent metrics are the zero record.
func (r PeriodRecord) Metric(name string) (MetricRecord, bool) {
	m, ok := r.KPI.Metrics[name]
	return m, ok
}

// KPIBlock is the "kpi" object: metric records keyed by name plus period metadata.
type KPIBlock struct {
	Metrics  map[string]MetricRecord
	Meta     RecordMeta
	Personal *PersonalSummary
}

// UnmarshalJSON splits the metric objects from the meta and personal blocks.
func (b *KPIBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Metrics = make(map[string]MetricRecord, len(raw))
	for key, value := range raw {
		switch key {
		case "meta":
			if err := json.Unmarshal(value, &b.Meta); err != nil {
				return fmt.Errorf("kpi.meta: %w", err)
			}
		case "personal":
			if isNull(value) {
				continue
			}
			var p PersonalSummary
			if err := json.Unmarshal(value, &p); err != nil {
				return fmt.Errorf("kpi.personal: %w", err)
			}
			b.Personal = &p
		default:
			trimmed := bytes.TrimSpace(value)
			if len(trimmed) == 0 || trimmed[0] != '{' {
				continue
			}
			var m MetricRecord
			if err := json.Unmarshal(trimmed, &m); err != nil {
				return fmt.Errorf("kpi.%s: %w", key, err)
			}
			b.Metrics[key] = m
		}
	}
	return nil
}

// RecordMeta carries per-period display data and the interannual inflation rate.
type RecordMeta struct {
	Periodo      string   `json:"periodo"`
	InflationYoY *float64 `json:"ipc_ia"`
}

// PersonalSummary is the salary block shown on the home view.
type PersonalSummary struct {
	SalaryRealVar *float64 `json:"salario_var_real_ia"`
	CBTRatio      *float64 `json:"cbt_ratio"`
	CBTValue      *float64 `json:"cbt_valor"`
	PreviousLabel string   `json:"periodo_anterior,omitempty"`
}

// MetricRecord is one metric's raw figures. Nil pointers mean the field was absent or null.
type MetricRecord struct {
	Current          *float64
	Prev             *float64
	Real             *float64
	RealPrev         *float64
	VarNominal       *float64
	VarReal          *float64
	DiffNominal      *float64
	DiffReal         *float64
	Incomplete       bool
	InflationMissing bool
	CoverageCurrent  *float64
	CoveragePrev     *float64
}

type metricRecordJSON struct {
	Current          *float64 `json:"current"`
	Prev             *float64 `json:"prev"`
	Real             *float64 `json:"real"`
	RealPrev         *float64 `json:"real_prev"`
	VarNominal       *float64 `json:"var_nominal"`
	VarNom           *float64 `json:"var_nom"`
	VarReal          *float64 `json:"var_real"`
	DiffNominal      *float64 `json:"diff_nom"`
	DiffReal         *float64 `json:"diff_real"`
	Incomplete       bool     `json:"is_incomplete"`
	InflationMissing bool     `json:"ipc_missing"`
	CoverageCurrent  *float64 `json:"cobertura_current"`
	CoveragePrev     *float64 `json:"cobertura_prev"`
}

// UnmarshalJSON accepts both "var_nominal" and the shorter "var_nom".
func (m *MetricRecord) UnmarshalJSON(data []byte) error {
	var raw metricRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	varNominal := raw.VarNominal
	if varNominal == nil {
		varNominal = raw.VarNom
	}
	*m = MetricRecord{
		Current:          raw.Current,
		Prev:             raw.Prev,
		Real:             raw.Real,
		RealPrev:         raw.RealPrev,
		VarNominal:       varNominal,
		VarReal:          raw.VarReal,
		DiffNominal:      raw.DiffNominal,
		DiffReal:         raw.DiffReal,
		Incomplete:       raw.Incomplete,
		InflationMissing: raw.InflationMissing,
		CoverageCurrent:  raw.CoverageCurrent,
		CoveragePrev:     raw.CoveragePrev,
	}
	return nil
}

// RecordCharts holds per-period chart series.
type RecordCharts struct {
	Daily *DailySeries `json:"daily,omitempty"`
}

// DailySeries compares daily revenue against the same month a year earlier.
type DailySeries struct {
	Labels   []string   `json:"labels"`
	Previous []*float64 `json:"data_prev_nom"`
	Current  []*float64 `json:"data_curr"`
}

// UnmarshalJSON also accepts the year-named keys older snapshots carry.
func (d *DailySeries) UnmarshalJSON(data []byte) error {
	var raw struct {
		Labels      []string   `json:"labels"`
		Previous    []*float64 `json:"data_prev_nom"`
		Current     []*float64 `json:"data_curr"`
		PreviousOld []*float64 `json:"data_2025_nom"`
		CurrentOld  []*float64 `json:"data_2026"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Labels = raw.Labels
	d.Previous = raw.Previous
	if d.Previous == nil {
		d.Previous = raw.PreviousOld
	}
	d.Current = raw.Current
	if d.Current == nil {
		d.Current = raw.CurrentOld
	}
	return nil
}

// GlobalCharts is the interannual revenue against inflation series.
type GlobalCharts struct {
	Labels       []string   `json:"labels"`
	RevenueYoY   []*float64 `json:"copa_var_interanual"`
	InflationYoY []*float64 `json:"ipc_var_interanual"`
}

// SecondaryCharts groups the home view's auxiliary series.
type SecondaryCharts struct {
	PurchasingPower *LabeledSeries `json:"purchasing_power,omitempty"`
}

// LabeledSeries is a single series with its axis labels.
type LabeledSeries struct {
	Labels []string   `json:"labels"`
	Values []*float64 `json:"values"`
}

// Annual is the yearly revenue block.
type Annual struct {
	Periods []AnnualPeriod `json:"periods"`
	Meta    AnnualMeta     `json:"meta"`
}

// AnnualPeriod is one year's nominal and deflated totals.
type AnnualPeriod struct {
	Year       int      `json:"year"`
	Nominal    *float64 `json:"nominal"`
	Real       *float64 `json:"real"`
	VarNominal *float64 `json:"var_nominal"`
	VarReal    *float64 `json:"var_real"`
}

// AnnualMeta describes the deflation base.
type AnnualMeta struct {
	BaseIPC       string `json:"base_ipc"`
	YearsIncluded []int  `json:"years_included"`
}

// PersonalCharts are the salary page series.
type PersonalCharts struct {
	Labels              []string   `json:"labels"`
	AverageSalary       []*float64 `json:"salario_promedio"`
	RIPTE               []*float64 `json:"ripte_valor"`
	SalaryMonthlyVar    []*float64 `json:"salario_var_mensual"`
	InflationMonthlyVar []*float64 `json:"ipc_var_mensual"`
}

// Decode parses a main snapshot and normalises its period list.
func Decode(raw []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if err := ds.normalize(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (d *Dataset) normalize() error {
	if d.Data == nil {
		d.Data = map[string]PeriodRecord{}
	}
	periods := make(Periods, 0, len(d.Meta.AvailablePeriods))
	for _, p := range d.Meta.AvailablePeriods {
		if err := p.normalize(); err != nil {
			return fmt.Errorf("decode dataset: %w", err)
		}
		periods = append(periods, p)
	}
	d.Meta.AvailablePeriods = periods
	return nil
}

// Record returns the period record for id.
func (d *Dataset) Record(id string) (PeriodRecord, bool) {
	if d == nil {
		return PeriodRecord{}, false
	}
	rec, ok := d.Data[id]
	return rec, ok
}

// Periods returns the available periods in chronological order.
func (d *Dataset) Periods() Periods {
	if d == nil {
		return nil
	}
	return d.Meta.AvailablePeriods.Ascending()
}

// Period returns the available period entry for id, synthesising one when only data exists.
// Keys outside the YYYY and YYYY-MM forms keep the raw id as their label.
func (d *Dataset) Period(id string) (Period, bool) {
	if d == nil {
		return Period{}, false
	}
	if p, ok := d.Meta.AvailablePeriods.Find(id); ok {
		return p, true
	}
	if _, ok := d.Data[id]; !ok {
		return Period{}, false
	}
	p, err := NewPeriod(id)
	if err != nil {
		return Period{ID: id, Label: id}, true
	}
	return p, true
}

// DefaultPeriod is meta.default_period_id when it has data, else the latest period with data.
func (d *Dataset) DefaultPeriod() string {
	if d == nil {
		return ""
	}
	if id := d.Meta.DefaultPeriodID; id != "" {
		if _, ok := d.Data[id]; ok {
			return id
		}
	}
	for _, p := range d.Meta.AvailablePeriods.Descending() {
		if _, ok := d.Data[p.ID]; ok {
			return p.ID
		}
	}
	return ""
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
