package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AnnualDataset exposes the annual block as a bare-year dataset whose revenue metric
// carries nominal and deflated totals.
func (d *Dataset) AnnualDataset() *Dataset {
	out := &Dataset{Data: map[string]PeriodRecord{}}
	if d == nil || d.Annual == nil {
		return out
	}
	for _, ap := range d.Annual.Periods {
		id := FormatPeriodID(ap.Year, 0)
		out.Meta.AvailablePeriods = append(out.Meta.AvailablePeriods, Period{ID: id, Label: strconv.Itoa(ap.Year), Year: ap.Year})
		out.Data[id] = PeriodRecord{KPI: KPIBlock{
			Metrics: map[string]MetricRecord{
				MetricRevenue: {
					Current:    ap.Nominal,
					Real:       ap.Real,
					VarNominal: ap.VarNominal,
					VarReal:    ap.VarReal,
				},
			},
			Meta: RecordMeta{Periodo: id},
		}}
	}
	out.Annual = d.Annual
	return out
}

// PersonalKPI is the flat salary summary produced by the payroll snapshot.
type PersonalKPI struct {
	AverageSalary   *float64 `json:"salario_promedio"`
	WageBill        *float64 `json:"masa_salarial"`
	HeadCount       *float64 `json:"empleados"`
	VarNominal      *float64 `json:"var_nominal_ia"`
	VarReal         *float64 `json:"var_real_ia"`
	Month           int      `json:"mes"`
	Year            int      `json:"anio"`
	CurrentLabel    string   `json:"periodo_actual"`
	PreviousLabel   string   `json:"periodo_anterior"`
	CBTValue        *float64 `json:"cbt_valor"`
	CBTRatio        *float64 `json:"cbt_ratio"`
	InflationMissed bool     `json:"ipc_missing"`
}

type personalSnapshot struct {
	Meta   *Meta                         `json:"meta"`
	KPI    *PersonalKPI                  `json:"kpi"`
	Charts *PersonalCharts               `json:"charts"`
	Data   map[string]personalPeriodJSON `json:"data"`
}

type personalPeriodJSON struct {
	KPI PersonalKPI `json:"kpi"`
}

// DecodePersonal parses the payroll snapshot. The top-level kpi block becomes the period
// named by its anio/mes; per-period entries under "data" are kept as they are.
func DecodePersonal(raw []byte) (*Dataset, error) {
	var snap personalSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode personal dataset: %w", err)
	}
	ds := &Dataset{Data: map[string]PeriodRecord{}, PersonalCharts: snap.Charts}
	for id, entry := range snap.Data {
		if _, _, err := ParsePeriodID(id); err != nil {
			return nil, fmt.Errorf("decode personal dataset: %w", err)
		}
		ds.Data[id] = entry.KPI.record()
	}
	if snap.KPI != nil && snap.KPI.Year > 0 {
		id := FormatPeriodID(snap.KPI.Year, snap.KPI.Month)
		if _, exists := ds.Data[id]; !exists {
			ds.Data[id] = snap.KPI.record()
		}
		ds.Meta.DefaultPeriodID = id
	}
	if snap.Meta != nil {
		ds.Meta.AvailablePeriods = snap.Meta.AvailablePeriods
		if snap.Meta.DefaultPeriodID != "" {
			ds.Meta.DefaultPeriodID = snap.Meta.DefaultPeriodID
		}
	}
	if len(ds.Meta.AvailablePeriods) == 0 {
		for id := range ds.Data {
			p, err := NewPeriod(id)
			if err != nil {
				return nil, fmt.Errorf("decode personal dataset: %w", err)
			}
			ds.Meta.AvailablePeriods = append(ds.Meta.AvailablePeriods, p)
		}
		ds.Meta.AvailablePeriods = ds.Meta.AvailablePeriods.Ascending()
	}
	if err := ds.normalize(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (k PersonalKPI) record() PeriodRecord {
	return PeriodRecord{KPI: KPIBlock{
		Metrics: map[string]MetricRecord{
			MetricAverageSalary: {
				Current:          k.AverageSalary,
				VarNominal:       k.VarNominal,
				VarReal:          k.VarReal,
				InflationMissing: k.InflationMissed,
			},
			MetricWageBill:  {Current: k.WageBill},
			MetricHeadCount: {Current: k.HeadCount},
		},
		Meta: RecordMeta{Periodo: k.CurrentLabel},
		Personal: &PersonalSummary{
			SalaryRealVar: k.VarReal,
			CBTRatio:      k.CBTRatio,
			CBTValue:      k.CBTValue,
			PreviousLabel: k.PreviousLabel,
		},
	}}
}
