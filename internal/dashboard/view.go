package dashboard

import (
	"fmt"
	"html/template"

	"github.com/tablero-fiscal/tablero/internal/chart/svg"
	"github.com/tablero-fiscal/tablero/internal/dataset"
	"github.com/tablero-fiscal/tablero/internal/format"
	"github.com/tablero-fiscal/tablero/internal/kpi"
)

// Card is one KPI tile.
type Card struct {
	ID    string
	Label string
	Value string
	Tone  string
	Sub   string
	Note  string
}

// Option is one entry of the period selector.
type Option struct {
	ID       string
	Label    string
	Selected bool
}

// Chart kinds.
const (
	KindLine    = "line"
	KindBar     = "bar"
	KindStacked = "stacked"
)

// ChartSpec describes a chart independently of its output format.
type ChartSpec struct {
	ID         string
	Title      string
	Subtitle   string
	Kind       string
	Labels     []string
	Series     []svg.Series
	TickSuffix string
}

// Chart is a chart ready for the template.
type Chart struct {
	ChartSpec
	SVG template.HTML
}

// Table is a plain tabular block.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Page is the view model of one dashboard page.
type Page struct {
	Profile     Profile
	PeriodID    string
	PeriodLabel string
	Options     []Option
	Cards       []Card
	Specs       []ChartSpec
	Charts      []Chart
	Table       *Table
	Notice      string
	View        *kpi.View
}

// Spec returns the chart spec with the given id.
func (p *Page) Spec(id string) (ChartSpec, bool) {
	for _, s := range p.Specs {
		if s.ID == id {
			return s, true
		}
	}
	return ChartSpec{}, false
}

// RenderSVG draws the chart as inline SVG.
func (s ChartSpec) RenderSVG() (template.HTML, error) {
	opts := svg.Opts{Title: s.Title, Description: s.Subtitle, TickSuffix: s.TickSuffix, ShowDots: s.Kind == KindLine}
	switch s.Kind {
	case KindLine:
		return svg.Line(0, 0, s.Series, s.Labels, opts)
	case KindBar:
		return svg.Bars(0, 0, s.Series, s.Labels, opts)
	case KindStacked:
		return svg.StackedPercent(0, 0, s.Series, s.Labels, opts)
	default:
		return "", fmt.Errorf("dashboard: unknown chart kind %q", s.Kind)
	}
}

// periodOptions lists the periods that have data, newest first.
func periodOptions(ds *dataset.Dataset, selected string) []Option {
	var out []Option
	for _, p := range ds.Meta.AvailablePeriods.Descending() {
		if _, ok := ds.Record(p.ID); !ok {
			continue
		}
		out = append(out, Option{ID: p.ID, Label: p.Display(), Selected: p.ID == selected})
	}
	return out
}

func percentCard(id, label string, v kpi.Value, digits int, sub string) Card {
	return Card{ID: id, Label: label, Value: format.SignedPercent(v, digits), Tone: format.Tone(v), Sub: sub}
}

func noDataCard(id, label, sub string) Card {
	return Card{ID: id, Label: label, Value: format.NoData, Tone: format.ToneMuted, Sub: sub}
}

func arrowPercent(v kpi.Value, digits int) string {
	f, ok := v.Get()
	if !ok {
		return format.Placeholder
	}
	arrow := "▲ "
	if f < 0 {
		arrow = "▼ "
	}
	return arrow + format.Percent(kpi.Of(abs(f)), digits)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
