// Package chart renders dashboard charts for export and tracks the live rendering per canvas.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/tablero-fiscal/tablero/internal/chart/svg"
)

// ErrNoData is returned when every point of every series is missing.
var ErrNoData = errors.New("chart: no data to render")

// PNG dimensions.
const (
	PNGWidth  = 960
	PNGHeight = 400
)

// LinePNG writes a PNG line chart. Missing points are dropped from their series.
// A single period or a flat series gets a padded axis so it still renders.
func LinePNG(w io.Writer, title string, labels []string, series []svg.Series) error {
	ticks := make([]gochart.Tick, len(labels))
	for i, label := range labels {
		ticks[i] = gochart.Tick{Value: float64(i), Label: label}
	}
	if len(ticks) == 1 {
		ticks = []gochart.Tick{{Value: -1}, ticks[0], {Value: 1}}
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	var rendered []gochart.Series
	for i, s := range series {
		if len(s.Values) != len(labels) {
			return fmt.Errorf("chart: series %q has %d points for %d labels", s.Name, len(s.Values), len(labels))
		}
		xs := make([]float64, 0, len(s.Values))
		ys := make([]float64, 0, len(s.Values))
		for x, p := range s.Values {
			if p == nil {
				continue
			}
			xs = append(xs, float64(x))
			ys = append(ys, *p)
			minY, maxY = math.Min(minY, *p), math.Max(maxY, *p)
		}
		if len(xs) == 0 {
			continue
		}
		style := gochart.Style{
			StrokeColor: colorFor(s.Color, i),
			StrokeWidth: 2.5,
			DotWidth:    3,
			DotColor:    colorFor(s.Color, i),
		}
		if s.Dashed {
			style.StrokeDashArray = []float64{5.0, 5.0}
		}
		rendered = append(rendered, gochart.ContinuousSeries{
			Name:    s.Name,
			Style:   style,
			XValues: xs,
			YValues: ys,
		})
	}
	if len(rendered) == 0 {
		return ErrNoData
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  PNGWidth,
		Height: PNGHeight,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: gochart.XAxis{Ticks: ticks},
		YAxis: gochart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return strings.Replace(fmt.Sprintf("%.1f", f), ".", ",", 1)
				}
				return ""
			},
		},
		Series: rendered,
	}
	if minY == maxY {
		pad := math.Max(1, math.Abs(minY)*0.1)
		graph.YAxis.Range = &gochart.ContinuousRange{Min: minY - pad, Max: maxY + pad}
	}
	graph.Elements = []gochart.Renderable{gochart.LegendLeft(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("chart render failed: %w", err)
	}
	return nil
}

// BarPNG writes a single-series PNG bar chart anchored at zero. Missing points are dropped.
func BarPNG(w io.Writer, title string, labels []string, series svg.Series) error {
	if len(series.Values) != len(labels) {
		return fmt.Errorf("chart: series %q has %d points for %d labels", series.Name, len(series.Values), len(labels))
	}
	bars := make([]gochart.Value, 0, len(labels))
	minY, maxY := 0.0, 0.0
	for i, p := range series.Values {
		if p == nil {
			continue
		}
		minY, maxY = math.Min(minY, *p), math.Max(maxY, *p)
		bars = append(bars, gochart.Value{
			Label: labels[i],
			Value: *p,
			Style: gochart.Style{FillColor: colorFor(series.Color, 2), StrokeColor: colorFor(series.Color, 2)},
		})
	}
	if len(bars) == 0 {
		return ErrNoData
	}
	graph := gochart.BarChart{
		Title:    title,
		Width:    PNGWidth,
		Height:   PNGHeight,
		BarWidth: 40,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40},
		},
		Bars: bars,
	}
	if minY == maxY {
		maxY = 1
	}
	graph.YAxis.Range = &gochart.ContinuousRange{Min: minY, Max: maxY}
	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("chart render failed: %w", err)
	}
	return nil
}

func colorFor(hex string, idx int) drawing.Color {
	if hex == "" {
		hex = svg.Palette[idx%len(svg.Palette)]
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
