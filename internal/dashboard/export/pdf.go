package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/tablero-fiscal/tablero/internal/dashboard"
	"github.com/tablero-fiscal/tablero/report"
)

// Renderer turns an HTML document into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string, opts report.PageOptions) ([]byte, error)
}

// PDFExporter prints dashboard pages through the Gotenberg client.
type PDFExporter struct {
	renderer Renderer
	now      func() time.Time
}

// NewPDFExporter wires the renderer.
func NewPDFExporter(renderer Renderer) *PDFExporter {
	return &PDFExporter{renderer: renderer, now: time.Now}
}

var documentTemplate = template.Must(template.New("pdf").Parse(`<!doctype html>
<html lang="es"><head><meta charset="utf-8"><title>{{.Page.Profile.Title}}</title>
<style>
body{font-family:sans-serif;margin:24px;color:#1f2937}
h1{font-size:20px;margin:0}
.meta{color:#6b7280;font-size:12px;margin-bottom:16px}
.cards{display:flex;flex-wrap:wrap;gap:8px;margin-bottom:16px}
.card{border:1px solid #e5e7eb;border-radius:6px;padding:8px 12px;min-width:160px}
.card .value{font-size:18px;font-weight:bold}
.card small{display:block;color:#6b7280}
.success{color:#15803d}.danger{color:#b91c1c}.muted{color:#9ca3af}
figure{margin:0 0 16px 0;page-break-inside:avoid}
table{width:100%;border-collapse:collapse}
th,td{border:1px solid #ddd;padding:6px;text-align:right}
th:first-child,td:first-child{text-align:left}
</style></head><body>
<h1>{{.Page.Profile.Title}}</h1>
<p class="meta">{{.Page.PeriodLabel}} · Generado {{.Generated}}</p>
<div class="cards">
{{range .Page.Cards}}<div class="card"><span>{{.Label}}</span><div class="value {{.Tone}}">{{.Value}}</div>{{if .Sub}}<small>{{.Sub}}</small>{{end}}{{if .Note}}<small>{{.Note}}</small>{{end}}</div>
{{end}}</div>
{{range .Page.Charts}}<figure><figcaption><strong>{{.Title}}</strong>{{if .Subtitle}} {{.Subtitle}}{{end}}</figcaption>{{.SVG}}</figure>
{{end}}
{{with .Page.Table}}<table><thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody></table>{{end}}
</body></html>`))

// BuildHTML renders the printable document for a page whose charts are already drawn.
func (p *PDFExporter) BuildHTML(page *dashboard.Page) (string, error) {
	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, struct {
		Page      *dashboard.Page
		Generated string
	}{Page: page, Generated: p.now().Format("02/01/2006 15:04")})
	if err != nil {
		return "", fmt.Errorf("export: build pdf html: %w", err)
	}
	return buf.String(), nil
}

// RenderPage draws the page's charts and prints it landscape.
func (p *PDFExporter) RenderPage(ctx context.Context, page *dashboard.Page) ([]byte, error) {
	if p == nil || p.renderer == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	if len(page.Charts) == 0 {
		// Charts that fail to draw are left out of the document.
		_ = page.Render()
	}
	html, err := p.BuildHTML(page)
	if err != nil {
		return nil, err
	}
	return p.renderer.RenderHTML(ctx, html, report.PageOptions{Landscape: true, WaitDelay: 500 * time.Millisecond})
}
