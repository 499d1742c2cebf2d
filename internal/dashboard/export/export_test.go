package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablero-fiscal/tablero/internal/dashboard"
	"github.com/tablero-fiscal/tablero/internal/dataset"
	"github.com/tablero-fiscal/tablero/report"
)

func exportPage(t *testing.T, pageID, periodID string) *dashboard.Page {
	t.Helper()
	profiles, err := dashboard.LoadProfiles("")
	require.NoError(t, err)
	loader := dataset.NewLoader(dataset.NewFileProvider("../../dataset/testdata"), nil, nil)
	svc := dashboard.NewService(loader, profiles, nil, nil)
	t.Cleanup(svc.Close)
	page, err := svc.Export(context.Background(), pageID, periodID)
	require.NoError(t, err)
	return page
}

func TestWritePageCSV(t *testing.T) {
	page := exportPage(t, dashboard.PageAnnual, "2024")
	buf := &bytes.Buffer{}
	require.NoError(t, WritePageCSV(buf, page))

	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"Indicador", "Valor", "Detalle"}, records[0])
	assert.Equal(t, []string{"Período", page.PeriodLabel, "2024"}, records[1])
	// header, period, cards, table header, table rows
	require.Len(t, records, 2+len(page.Cards)+1+len(page.Table.Rows))
	assert.Equal(t, page.Table.Headers, records[2+len(page.Cards)])
	assert.Equal(t, "2025", records[len(records)-1][0])
}

func TestWritePageCSVJoinsNotes(t *testing.T) {
	page := &dashboard.Page{
		PeriodID:    "2026-02",
		PeriodLabel: "Febrero 2026",
		Cards:       []dashboard.Card{{Label: "Salario real", Value: "+4,1%", Sub: "vs Febrero 2025", Note: "Último dato: Enero 2026"}},
	}
	buf := &bytes.Buffer{}
	require.NoError(t, WritePageCSV(buf, page))
	assert.Contains(t, buf.String(), "vs Febrero 2025 | Último dato: Enero 2026")
}

type recordingRenderer struct {
	html string
	opts report.PageOptions
}

func (r *recordingRenderer) RenderHTML(ctx context.Context, html string, opts report.PageOptions) ([]byte, error) {
	r.html = html
	r.opts = opts
	return []byte("%PDF"), nil
}

func TestPDFExporterDrawsCharts(t *testing.T) {
	page := exportPage(t, dashboard.PageHome, "2026-01")
	require.Empty(t, page.Charts)

	renderer := &recordingRenderer{}
	exporter := NewPDFExporter(renderer)
	exporter.now = func() time.Time { return time.Date(2026, 2, 3, 10, 30, 0, 0, time.UTC) }

	data, err := exporter.RenderPage(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
	assert.True(t, renderer.opts.Landscape)
	assert.Contains(t, renderer.html, "Generado 03/02/2026 10:30")
	assert.Contains(t, renderer.html, "<svg")
	assert.Contains(t, renderer.html, page.Profile.Title)
}

func TestPDFExporterThroughGotenberg(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		file, _, err := r.FormFile("files")
		if err != nil {
			t.Errorf("missing html file: %v", err)
			return
		}
		raw, _ := io.ReadAll(file)
		received = string(raw)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	page := exportPage(t, dashboard.PageMonitor, "2026-01")
	data, err := NewPDFExporter(report.NewClient(srv.URL, nil)).RenderPage(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "PDF", string(data))
	assert.True(t, strings.Contains(received, "Monitor Mensual"))
}
