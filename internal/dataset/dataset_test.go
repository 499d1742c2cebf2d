package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return raw
}

func TestDecodeMainSnapshot(t *testing.T) {
	ds, err := Decode(loadFixture(t, "main.json"))
	require.NoError(t, err)

	assert.Len(t, ds.Periods(), 4)
	assert.Equal(t, "2026-01", ds.DefaultPeriod())

	rec, ok := ds.Record("2026-01")
	require.True(t, ok)
	revenue, ok := rec.Metric(MetricRevenue)
	require.True(t, ok)
	require.NotNil(t, revenue.VarNominal, "var_nom alias should populate VarNominal")
	assert.InDelta(t, 50.0, *revenue.VarNominal, 1e-9)
	require.NotNil(t, rec.KPI.Personal)
	assert.InDelta(t, 1.62, *rec.KPI.Personal.CBTRatio, 1e-9)
	require.NotNil(t, rec.Charts.Daily)
	assert.Nil(t, rec.Charts.Daily.Previous[2])

	feb, _ := ds.Record("2026-02")
	assert.Nil(t, feb.KPI.Meta.InflationYoY, "null ipc_ia decodes as absent")
	wage, _ := feb.Metric(MetricWageBill)
	assert.True(t, wage.Incomplete)

	p, ok := ds.Period("2026-02")
	require.True(t, ok)
	assert.Equal(t, 2026, p.Year, "year is derived from the id when the source omits it")
}

func TestPeriodForUnparseableDataKey(t *testing.T) {
	ds, err := Decode([]byte(`{"data":{"Q1-2026":{"kpi":{"recaudacion":{"current":1}}}}}`))
	require.NoError(t, err)

	p, ok := ds.Period("Q1-2026")
	require.True(t, ok)
	assert.Equal(t, "Q1-2026", p.ID)
	assert.Equal(t, "Q1-2026", p.Display())
	assert.Equal(t, "Q1-2026", p.ShortLabel())

	_, ok = ds.Period("Q2-2026")
	assert.False(t, ok)
}

func TestDecodePrefersVarNominalOverAlias(t *testing.T) {
	ds, err := Decode([]byte(`{"meta":{"available_periods":[{"id":"2026-01"}]},
		"data":{"2026-01":{"kpi":{"recaudacion":{"current":1,"var_nominal":7,"var_nom":9}}}}}`))
	require.NoError(t, err)
	rec, _ := ds.Record("2026-01")
	m, _ := rec.Metric(MetricRevenue)
	assert.InDelta(t, 7.0, *m.VarNominal, 1e-9)
}

func TestDefaultPeriodFallsBackToLastWithData(t *testing.T) {
	ds, err := Decode([]byte(`{"meta":{"available_periods":[{"id":"2026-01"},{"id":"2026-02"},{"id":"2026-03"}],
		"default_period_id":"2027-01"},
		"data":{"2026-01":{"kpi":{}},"2026-02":{"kpi":{}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "2026-02", ds.DefaultPeriod())

	empty, err := Decode([]byte(`{"meta":{"available_periods":[]},"data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "", empty.DefaultPeriod())
}

func TestDecodeRejectsBadPeriodIDs(t *testing.T) {
	_, err := Decode([]byte(`{"meta":{"available_periods":[{"id":"enero"}]},"data":{}}`))
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestAnnualDataset(t *testing.T) {
	ds, err := Decode(loadFixture(t, "main.json"))
	require.NoError(t, err)

	annual := ds.AnnualDataset()
	assert.Equal(t, []string{"2023", "2024", "2025"}, annual.Periods().IDs())
	assert.Equal(t, "2025", annual.DefaultPeriod())

	rec, ok := annual.Record("2024")
	require.True(t, ok)
	m, _ := rec.Metric(MetricRevenue)
	assert.InDelta(t, 2700.0, *m.Current, 1e-9)
	assert.InDelta(t, -9.5, *m.VarReal, 1e-9)

	latest, _ := annual.Record("2025")
	lm, _ := latest.Metric(MetricRevenue)
	assert.Nil(t, lm.VarNominal)
}

func TestDecodePersonalSnapshot(t *testing.T) {
	ds, err := DecodePersonal(loadFixture(t, "personal.json"))
	require.NoError(t, err)

	assert.Equal(t, "2026-01", ds.DefaultPeriod())
	rec, ok := ds.Record("2026-01")
	require.True(t, ok)
	salary, _ := rec.Metric(MetricAverageSalary)
	assert.InDelta(t, 4.1, *salary.VarReal, 1e-9)
	require.NotNil(t, rec.KPI.Personal)
	assert.Equal(t, "Enero 2025", rec.KPI.Personal.PreviousLabel)
	require.NotNil(t, ds.PersonalCharts)
	assert.Nil(t, ds.PersonalCharts.RIPTE[1])
}
