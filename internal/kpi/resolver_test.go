package kpi

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/tablero-fiscal/tablero/internal/dataset"
)

func decode(t *testing.T, raw string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ds
}

func fixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "dataset", "testdata", "main.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	ds, err := dataset.Decode(raw)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return ds
}

func mustFloat(t *testing.T, v Value) float64 {
	t.Helper()
	f, ok := v.Get()
	if !ok {
		t.Fatalf("expected value, got missing")
	}
	return f
}

func TestResolveDerivesYearOverYearVariation(t *testing.T) {
	ds := decode(t, `{"meta":{"available_periods":[{"id":"2025-01"},{"id":"2026-01"}]},
		"data":{"2025-01":{"kpi":{"recaudacion":{"current":100,"is_incomplete":false}}},
		        "2026-01":{"kpi":{"recaudacion":{"current":150,"is_incomplete":false}}}}}`)

	view, err := Resolve(ds, "2026-01")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	m := view.Metric(dataset.MetricRevenue)
	if got := mustFloat(t, m.VarNominal); math.Abs(got-50) > 1e-9 {
		t.Fatalf("expected var_nominal 50, got %v", got)
	}
	if got := mustFloat(t, m.DiffNominal); got != 50 {
		t.Fatalf("expected diff 50, got %v", got)
	}
	if m.Origins.VarNominal != OriginDerived {
		t.Fatalf("expected derived origin, got %s", m.Origins.VarNominal)
	}
	if view.PreviousID != "2025-01" || !view.HasPrevious {
		t.Fatalf("unexpected previous lookup %q %v", view.PreviousID, view.HasPrevious)
	}
}

func TestResolveIncompleteWithoutPreviousYear(t *testing.T) {
	ds := decode(t, `{"meta":{"available_periods":[{"id":"2026-01"}]},
		"data":{"2026-01":{"kpi":{"recaudacion":{"current":150,"is_incomplete":true}}}}}`)

	view, err := Resolve(ds, "2026-01")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	m := view.Metric(dataset.MetricRevenue)
	if got := mustFloat(t, m.Current); got != 150 {
		t.Fatalf("expected current 150, got %v", got)
	}
	for name, v := range map[string]Value{
		"var_nominal": m.VarNominal, "var_real": m.VarReal,
		"diff_nominal": m.DiffNominal, "diff_real": m.DiffReal, "previous": m.Previous,
	} {
		if v.Valid() {
			t.Fatalf("expected %s missing, got %v", name, v.Float())
		}
	}
}

func TestResolvePrecomputedWinsVerbatim(t *testing.T) {
	ds := decode(t, `{"meta":{"available_periods":[{"id":"2025-03"},{"id":"2026-03"}]},
		"data":{"2025-03":{"kpi":{"recaudacion":{"current":100}}},
		        "2026-03":{"kpi":{"recaudacion":{"current":150,"var_nominal":48.7654321,"diff_nom":49}}}}}`)

	view, err := Resolve(ds, "2026-03")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	m := view.Metric(dataset.MetricRevenue)
	if got := mustFloat(t, m.VarNominal); got != 48.7654321 {
		t.Fatalf("precomputed variation altered: %v", got)
	}
	if got := mustFloat(t, m.DiffNominal); got != 49 {
		t.Fatalf("precomputed diff altered: %v", got)
	}
	if m.Origins.VarNominal != OriginPrecomputed {
		t.Fatalf("expected precomputed origin")
	}
}

func TestResolveIncompleteOverridesPrecomputed(t *testing.T) {
	ds := fixture(t)
	view, err := Resolve(ds, "2026-02")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	wage := view.Metric(dataset.MetricWageBill)
	if !wage.Incomplete || wage.VarNominal.Valid() || wage.DiffNominal.Valid() || wage.VarReal.Valid() {
		t.Fatalf("incomplete wage bill leaked variations: %+v", wage)
	}
	if wage.CoverageCurrent.Valid() {
		t.Fatalf("incomplete wage bill should not report coverage")
	}
	if got := mustFloat(t, wage.Current); got != 58 {
		t.Fatalf("current figure should survive incompleteness, got %v", got)
	}
}

func TestResolveInflationMissingOnlyAffectsRealFields(t *testing.T) {
	ds := fixture(t)
	view, err := Resolve(ds, "2026-02")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	rev := view.Metric(dataset.MetricRevenue)
	if rev.VarReal.Valid() || rev.DiffReal.Valid() {
		t.Fatalf("expected real fields missing, got %+v", rev)
	}
	if got := mustFloat(t, rev.VarNominal); math.Abs(got-10) > 1e-9 {
		t.Fatalf("expected nominal variation 10, got %v", got)
	}
}

func TestResolveZeroPreviousIsMissing(t *testing.T) {
	ds := decode(t, `{"meta":{"available_periods":[{"id":"2025-05"},{"id":"2026-05"}]},
		"data":{"2025-05":{"kpi":{"recaudacion":{"current":0}}},
		        "2026-05":{"kpi":{"recaudacion":{"current":0}}}}}`)
	view, err := Resolve(ds, "2026-05")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	m := view.Metric(dataset.MetricRevenue)
	if m.VarNominal.Valid() {
		t.Fatalf("division by zero must be missing, got %v", m.VarNominal.Float())
	}
	if got := mustFloat(t, m.Current); got != 0 {
		t.Fatalf("zero current is a legitimate zero, got %v", got)
	}
	if got := mustFloat(t, m.DiffNominal); got != 0 {
		t.Fatalf("expected zero diff, got %v", got)
	}
}

func TestResolveUsesCalendarYearNotAdjacency(t *testing.T) {
	ds := fixture(t)
	view, err := Resolve(ds, "2026-02")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	rev := view.Metric(dataset.MetricRevenue)
	if got := mustFloat(t, rev.Previous); got != 120 {
		t.Fatalf("expected 2025-02 as previous (120), got %v", got)
	}
}

func TestResolveEmbeddedPreviousFallback(t *testing.T) {
	ds := decode(t, `{"meta":{"available_periods":[{"id":"2026-04"}]},
		"data":{"2026-04":{"kpi":{"recaudacion":{"current":130,"prev":100}}}}}`)

	strict, err := Resolve(ds, "2026-04")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if strict.Metric(dataset.MetricRevenue).VarNominal.Valid() {
		t.Fatalf("strict resolution must ignore the embedded prev figure")
	}

	lenient, err := ResolveWith(ds, "2026-04", Options{EmbeddedPrevious: true})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := mustFloat(t, lenient.Metric(dataset.MetricRevenue).VarNominal); math.Abs(got-30) > 1e-9 {
		t.Fatalf("expected 30, got %v", got)
	}
}

func TestResolveRealVariationFromInflation(t *testing.T) {
	ds := decode(t, `{"meta":{"available_periods":[{"id":"2025-06"},{"id":"2026-06"}]},
		"data":{"2025-06":{"kpi":{"masa_salarial":{"current":100}}},
		        "2026-06":{"kpi":{"masa_salarial":{"current":150},"meta":{"ipc_ia":25}}}}}`)
	view, err := Resolve(ds, "2026-06")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got := mustFloat(t, view.Metric(dataset.MetricWageBill).VarReal)
	if math.Abs(got-20) > 1e-9 {
		t.Fatalf("expected real variation 20, got %v", got)
	}
}

func TestResolveRealVariationFallsBackWhenPreviousRealAbsent(t *testing.T) {
	ds := decode(t, `{"data":{"2025-06":{"kpi":{"recaudacion":{"current":100}}},
		        "2026-06":{"kpi":{"recaudacion":{"current":150,"real":120},"meta":{"ipc_ia":25}}}}}`)
	view, err := Resolve(ds, "2026-06")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	m := view.Metric(dataset.MetricRevenue)
	if got := mustFloat(t, m.VarReal); math.Abs(got-20) > 1e-9 {
		t.Fatalf("expected real variation 20 from ipc_ia, got %v", got)
	}
	if m.Origins.VarReal != OriginDerived {
		t.Fatalf("expected derived origin, got %v", m.Origins.VarReal)
	}
}

func TestResolveUnparseableKeyPresentInData(t *testing.T) {
	ds := decode(t, `{"data":{"Q1-2026":{"kpi":{"recaudacion":{"current":90}}}}}`)
	view, err := Resolve(ds, "Q1-2026")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if view.Period.ID != "Q1-2026" || view.Label != "Q1-2026" {
		t.Fatalf("expected raw id as period and label, got %+v / %q", view.Period, view.Label)
	}
	if got := mustFloat(t, view.Metric(dataset.MetricRevenue).Current); got != 90 {
		t.Fatalf("expected current 90, got %v", got)
	}
	if view.HasPrevious || view.Metric(dataset.MetricRevenue).VarNominal.Valid() {
		t.Fatalf("no previous period can be derived from an unparseable key")
	}
}

func TestResolveNotFound(t *testing.T) {
	ds := fixture(t)
	_, err := Resolve(ds, "2030-01")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.PeriodID != "2030-01" {
		t.Fatalf("expected NotFoundError for 2030-01, got %v", err)
	}
}

func TestResolveRestrictedMetricsAreMissingWhenAbsent(t *testing.T) {
	ds := fixture(t)
	view, err := ResolveWith(ds, "2026-01", Options{Metrics: []string{dataset.MetricRevenue, dataset.MetricHeadCount}})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := view.Metrics[dataset.MetricWageBill]; ok {
		t.Fatalf("unrequested metric resolved")
	}
	if view.Metric(dataset.MetricHeadCount).Current.Valid() {
		t.Fatalf("absent metric should resolve to missing")
	}
	if view.Personal == nil || mustFloat(t, view.Personal.CBTRatio) != 1.62 {
		t.Fatalf("expected personal block, got %+v", view.Personal)
	}
}

func TestResolveCoverageFromRecord(t *testing.T) {
	ds := fixture(t)
	view, err := Resolve(ds, "2026-01")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	wage := view.Metric(dataset.MetricWageBill)
	if got := mustFloat(t, wage.CoverageCurrent); got != 40 {
		t.Fatalf("expected supplied coverage 40, got %v", got)
	}
}
