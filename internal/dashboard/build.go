package dashboard

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tablero-fiscal/tablero/internal/chart/svg"
	"github.com/tablero-fiscal/tablero/internal/dataset"
	"github.com/tablero-fiscal/tablero/internal/format"
	"github.com/tablero-fiscal/tablero/internal/kpi"
)

const (
	colorBrand   = "#10b981"
	colorSlate   = "#94a3b8"
	colorSky     = "#0ea5e9"
	colorIndigo  = "#6366f1"
	colorOrange  = "#f97316"
	coverageNote = "Masa salarial / Recaudación"
)

func newPage(profile Profile, ds *dataset.Dataset, view kpi.View) *Page {
	return &Page{
		Profile:     profile,
		PeriodID:    view.Period.ID,
		PeriodLabel: view.Label,
		Options:     periodOptions(ds, view.Period.ID),
		View:        &view,
	}
}

func previousLabel(view kpi.View) string {
	if p, err := dataset.NewPeriod(view.PreviousID); err == nil {
		return p.Display()
	}
	return view.PreviousID
}

// Render draws every chart spec. Charts that cannot be drawn are skipped and reported.
func (p *Page) Render() error {
	var errs []error
	p.Charts = p.Charts[:0]
	for _, spec := range p.Specs {
		html, err := spec.RenderSVG()
		if err != nil {
			errs = append(errs, fmt.Errorf("chart %s: %w", spec.ID, err))
			continue
		}
		p.Charts = append(p.Charts, Chart{ChartSpec: spec, SVG: html})
	}
	return errors.Join(errs...)
}

// BuildHome assembles the executive summary.
func BuildHome(main, personal *dataset.Dataset, periodID string, profile Profile) (*Page, error) {
	view, err := kpi.ResolveWith(main, periodID, profile.ResolveOptions())
	if err != nil {
		return nil, err
	}
	page := newPage(profile, main, view)
	digits := profile.Precision
	rev := view.Metric(dataset.MetricRevenue)
	wage := view.Metric(dataset.MetricWageBill)
	vsPrev := "vs " + previousLabel(view)

	if rev.InflationMissing {
		page.Cards = append(page.Cards, noDataCard("recaudacion-real", "Recaudación real", vsPrev))
	} else {
		page.Cards = append(page.Cards, percentCard("recaudacion-real", "Recaudación real", rev.VarReal, digits, "Interanual "+vsPrev))
	}

	coverage := Card{ID: "cobertura", Label: "Cobertura salarial", Value: format.Percent(wage.CoverageCurrent, digits), Tone: format.ToneNeutral, Sub: coverageNote}
	if wage.Incomplete {
		coverage.Value, coverage.Tone = format.NoData, format.ToneMuted
	}
	page.Cards = append(page.Cards, coverage)

	salary, ratio, note := personalFigures(view, personal, periodID)
	salaryCard := percentCard("salario-real", "Salario real", salary, digits, "Interanual")
	salaryCard.Note = note
	page.Cards = append(page.Cards, salaryCard)
	page.Cards = append(page.Cards, Card{
		ID:    "cbt-ratio",
		Label: "Salario / CBT",
		Value: format.Decimal(ratio, 2),
		Tone:  format.RatioTone(ratio, format.CBTThreshold),
		Sub:   "Canastas básicas por salario promedio",
		Note:  note,
	})

	if gc := main.GlobalCharts; gc != nil && len(gc.Labels) > 0 {
		page.Specs = append(page.Specs, ChartSpec{
			ID:         "interanual",
			Title:      "Coparticipación vs. Inflación",
			Subtitle:   "Variación interanual (%)",
			Kind:       KindLine,
			Labels:     gc.Labels,
			TickSuffix: "%",
			Series: []svg.Series{
				{Name: "Var. Interanual Coparticipación (%)", Color: colorBrand, Values: gc.RevenueYoY},
				{Name: "Inflación Interanual (%)", Color: colorSlate, Values: gc.InflationYoY, Dashed: true},
			},
		})
	}
	if sc := main.SecondaryCharts; sc != nil && sc.PurchasingPower != nil && len(sc.PurchasingPower.Labels) > 0 {
		pp := sc.PurchasingPower
		page.Specs = append(page.Specs, ChartSpec{
			ID:       "poder-adquisitivo",
			Title:    "Poder adquisitivo",
			Subtitle: "Salario promedio / CBT NEA",
			Kind:     KindBar,
			Labels:   pp.Labels,
			Series:   []svg.Series{{Name: "Salarios Promedio / CBT NEA", Color: colorSky, Values: pp.Values}},
		})
	}
	if spec, ok := coverageSpec(main, periodID, profile.CoverageWindow); ok {
		page.Specs = append(page.Specs, spec)
	}
	return page, nil
}

// personalFigures picks the salary figures for the home view: the main snapshot's own
// block wins, then the payroll snapshot for the same period, then its latest period.
func personalFigures(view kpi.View, personal *dataset.Dataset, periodID string) (salary, ratio kpi.Value, note string) {
	salary, ratio = kpi.Missing, kpi.Missing
	if personal != nil {
		rec, ok := personal.Record(periodID)
		if !ok {
			latest := personal.DefaultPeriod()
			rec, ok = personal.Record(latest)
			if p, found := personal.Period(latest); ok && found {
				note = "Último dato: " + p.Display()
			}
		}
		if ok && rec.KPI.Personal != nil {
			salary = kpi.FromPtr(rec.KPI.Personal.SalaryRealVar)
			ratio = kpi.FromPtr(rec.KPI.Personal.CBTRatio)
		}
	}
	if view.Personal != nil {
		if view.Personal.SalaryRealVar.Valid() || view.Personal.CBTRatio.Valid() {
			note = ""
		}
		salary = view.Personal.SalaryRealVar.Or(salary)
		ratio = view.Personal.CBTRatio.Or(ratio)
	}
	return salary, ratio, note
}

func coverageSpec(ds *dataset.Dataset, periodID string, window int) (ChartSpec, bool) {
	points, err := kpi.CoverageSeries(ds, periodID, window)
	if err != nil || len(points) == 0 {
		return ChartSpec{}, false
	}
	labels := make([]string, len(points))
	wage := make([]*float64, len(points))
	other := make([]*float64, len(points))
	for i, p := range points {
		labels[i] = p.Label
		w, o := p.WagebillPct, p.OtherPct
		wage[i], other[i] = &w, &o
	}
	return ChartSpec{
		ID:       "cobertura",
		Title:    "Cobertura de la masa salarial",
		Subtitle: fmt.Sprintf("Evolución Cobertura (%s a %s)", labels[0], labels[len(labels)-1]),
		Kind:     KindStacked,
		Labels:   labels,
		Series: []svg.Series{
			{Name: "Masa salarial", Color: colorIndigo, Values: wage},
			{Name: "Resto coparticipación", Color: colorSlate, Values: other},
		},
		TickSuffix: "%",
	}, true
}

// BuildMonitor assembles the monthly monitor.
func BuildMonitor(main *dataset.Dataset, periodID string, profile Profile) (*Page, error) {
	view, err := kpi.ResolveWith(main, periodID, profile.ResolveOptions())
	if err != nil {
		return nil, err
	}
	page := newPage(profile, main, view)
	digits := profile.Precision
	rev := view.Metric(dataset.MetricRevenue)
	wage := view.Metric(dataset.MetricWageBill)
	prev := previousLabel(view)

	page.Cards = append(page.Cards,
		Card{ID: "recaudacion-actual", Label: "Recaudación " + view.Label, Value: format.Millions(rev.Current), Tone: format.ToneNeutral},
		Card{ID: "recaudacion-anterior", Label: "Recaudación " + prev, Value: format.Millions(rev.Previous), Tone: format.ToneNeutral},
		Card{ID: "recaudacion-var-nom", Label: "Variación nominal", Value: format.SignedMillions(rev.DiffNominal), Tone: format.Tone(rev.DiffNominal), Sub: arrowPercent(rev.VarNominal, digits)},
	)
	if rev.InflationMissing {
		page.Cards = append(page.Cards, noDataCard("recaudacion-var-real", "Variación real", "IPC no disponible"))
	} else {
		page.Cards = append(page.Cards, percentCard("recaudacion-var-real", "Variación real", rev.VarReal, digits, "Ajustada por inflación"))
	}

	current := Card{ID: "masa-actual", Label: "Masa salarial " + view.Label, Value: format.Millions(wage.Current), Tone: format.ToneNeutral,
		Sub: "Cobertura: " + format.Percent(wage.CoverageCurrent, 1)}
	if wage.Incomplete {
		current.Value, current.Tone = format.NoData, format.ToneMuted
	}
	page.Cards = append(page.Cards, current,
		Card{ID: "masa-anterior", Label: "Masa salarial " + prev, Value: format.Millions(wage.Previous), Tone: format.ToneNeutral,
			Sub: "Cobertura: " + format.Percent(wage.CoveragePrevious, 1)})
	if wage.Incomplete {
		page.Cards = append(page.Cards, noDataCard("masa-var-nom", "Variación nominal", " - "))
	} else {
		page.Cards = append(page.Cards, Card{ID: "masa-var-nom", Label: "Variación nominal", Value: format.SignedMillions(wage.DiffNominal),
			Tone: format.Tone(wage.DiffNominal), Sub: arrowPercent(wage.VarNominal, digits)})
	}
	if wage.Incomplete || wage.InflationMissing || rev.InflationMissing {
		page.Cards = append(page.Cards, noDataCard("masa-var-real", "Variación real", ""))
	} else {
		page.Cards = append(page.Cards, percentCard("masa-var-real", "Variación real", wage.VarReal, digits, "Ajustada por inflación"))
	}

	if rec, ok := main.Record(periodID); ok && rec.Charts.Daily != nil && len(rec.Charts.Daily.Labels) > 0 {
		daily := rec.Charts.Daily
		series := []svg.Series{{Name: view.Label, Color: colorBrand, Values: daily.Current}}
		if len(daily.Previous) == len(daily.Labels) {
			series = append(series, svg.Series{Name: prev, Color: colorSlate, Values: daily.Previous})
		}
		page.Specs = append(page.Specs, ChartSpec{
			ID:       "diaria",
			Title:    "Recaudación diaria",
			Subtitle: fmt.Sprintf("%s frente a %s (millones)", view.Label, prev),
			Kind:     KindBar,
			Labels:   daily.Labels,
			Series:   series,
		})
	}
	return page, nil
}

// BuildAnnual assembles the yearly view from the annual block of the main snapshot.
func BuildAnnual(annual *dataset.Dataset, periodID string, profile Profile) (*Page, error) {
	view, err := kpi.ResolveWith(annual, periodID, profile.ResolveOptions())
	if err != nil {
		return nil, err
	}
	page := newPage(profile, annual, view)
	digits := profile.Precision
	rev := view.Metric(dataset.MetricRevenue)
	year := view.Period.ID

	page.Cards = append(page.Cards,
		Card{ID: "anual-actual", Label: "Recaudación " + year, Value: format.Compact(rev.Current), Tone: format.ToneNeutral, Sub: "Real: " + format.Compact(rev.Real)},
		Card{ID: "anual-anterior", Label: "Recaudación " + view.PreviousID, Value: format.Compact(rev.Previous), Tone: format.ToneNeutral, Sub: "Real: " + format.Compact(rev.RealPrevious)},
		Card{ID: "anual-var-nom", Label: "Variación nominal", Value: format.SignedCompact(rev.DiffNominal), Tone: format.Tone(rev.VarNominal), Sub: format.SignedPercent(rev.VarNominal, digits) + " Interanual"},
		Card{ID: "anual-var-real", Label: "Variación real", Value: format.SignedCompact(rev.DiffReal), Tone: format.Tone(rev.VarReal), Sub: format.SignedPercent(rev.VarReal, digits) + " Interanual"},
	)

	table := &Table{Headers: []string{"Año", "Nominal", "Var. nominal", "Real", "Var. real"}}
	periods := annual.Periods()
	labels := make([]string, 0, len(periods))
	nominal := make([]kpi.Value, 0, len(periods))
	real := make([]kpi.Value, 0, len(periods))
	for _, p := range periods {
		row, err := kpi.ResolveWith(annual, p.ID, profile.ResolveOptions())
		if err != nil {
			continue
		}
		m := row.Metric(dataset.MetricRevenue)
		table.Rows = append(table.Rows, []string{
			p.ID,
			format.Compact(m.Current),
			format.SignedPercent(m.VarNominal, digits),
			format.Compact(m.Real),
			format.SignedPercent(m.VarReal, digits),
		})
		labels = append(labels, strconv.Itoa(p.Year))
		nominal = append(nominal, m.Current)
		real = append(real, m.Real)
	}
	page.Table = table

	if len(labels) > 0 {
		realName := "Real"
		if annual.Annual != nil && annual.Annual.Meta.BaseIPC != "" {
			realName = fmt.Sprintf("Real (%s)", annual.Annual.Meta.BaseIPC)
		}
		page.Specs = append(page.Specs, ChartSpec{
			ID:       "evolucion",
			Title:    "Recaudación anual",
			Subtitle: "Nominal y a precios constantes",
			Kind:     KindBar,
			Labels:   labels,
			Series: []svg.Series{
				{Name: "Nominal", Color: colorSlate, Values: kpi.Floats(nominal)},
				{Name: realName, Color: colorBrand, Values: kpi.Floats(real)},
			},
		})
	}
	return page, nil
}

// BuildPersonal assembles the payroll view.
func BuildPersonal(personal *dataset.Dataset, periodID string, profile Profile) (*Page, error) {
	view, err := kpi.ResolveWith(personal, periodID, profile.ResolveOptions())
	if err != nil {
		return nil, err
	}
	page := newPage(profile, personal, view)
	digits := profile.Precision
	salary := view.Metric(dataset.MetricAverageSalary)
	wage := view.Metric(dataset.MetricWageBill)
	heads := view.Metric(dataset.MetricHeadCount)

	prev := previousLabel(view)
	cbtValue, cbtRatio := kpi.Missing, kpi.Missing
	if view.Personal != nil {
		if view.Personal.PreviousLabel != "" {
			prev = view.Personal.PreviousLabel
		}
		cbtValue, cbtRatio = view.Personal.CBTValue, view.Personal.CBTRatio
	}

	page.Cards = append(page.Cards,
		Card{ID: "salario-promedio", Label: "Salario promedio", Value: format.Currency(salary.Current), Tone: format.ToneNeutral,
			Sub: fmt.Sprintf("Empleados: %s | %s", format.Integer(heads.Current), view.Label)},
		Card{ID: "masa-salarial", Label: "Masa salarial", Value: format.Millions(wage.Current), Tone: format.ToneNeutral},
		percentCard("var-nominal", "Variación nominal", salary.VarNominal, digits, "vs "+prev),
	)
	if salary.InflationMissing {
		page.Cards = append(page.Cards, noDataCard("var-real", "Variación real", "Ajustado por IPC NEA"))
	} else {
		page.Cards = append(page.Cards, percentCard("var-real", "Variación real", salary.VarReal, digits, "Ajustado por IPC NEA vs "+prev))
	}
	page.Cards = append(page.Cards,
		Card{ID: "cbt-valor", Label: fmt.Sprintf("Valor CBT (%s)", view.Label), Value: format.Currency(cbtValue), Tone: format.ToneNeutral},
		Card{ID: "cbt-ratio", Label: "Salario / CBT", Value: format.Decimal(cbtRatio, 2), Tone: format.RatioTone(cbtRatio, format.CBTThreshold)},
	)

	if pc := personal.PersonalCharts; pc != nil && len(pc.Labels) > 0 {
		if len(pc.AverageSalary) == len(pc.Labels) {
			series := []svg.Series{{Name: "Salario promedio", Color: colorBrand, Values: pc.AverageSalary}}
			if len(pc.RIPTE) == len(pc.Labels) {
				series = append(series, svg.Series{Name: "RIPTE", Color: colorSlate, Values: pc.RIPTE, Dashed: true})
			}
			page.Specs = append(page.Specs, ChartSpec{
				ID:       "salario-ripte",
				Title:    "Salario promedio vs. RIPTE",
				Subtitle: "Últimos 12 meses",
				Kind:     KindLine,
				Labels:   pc.Labels,
				Series:   series,
			})
		}
		if len(pc.SalaryMonthlyVar) == len(pc.Labels) && len(pc.InflationMonthlyVar) == len(pc.Labels) {
			page.Specs = append(page.Specs, ChartSpec{
				ID:         "variacion-mensual",
				Title:      "Variación mensual",
				Subtitle:   "Salario frente a inflación (%)",
				Kind:       KindBar,
				Labels:     pc.Labels,
				TickSuffix: "%",
				Series: []svg.Series{
					{Name: "Salario", Color: colorSky, Values: pc.SalaryMonthlyVar},
					{Name: "IPC NEA", Color: colorOrange, Values: pc.InflationMonthlyVar},
				},
			})
		}
	}
	return page, nil
}
