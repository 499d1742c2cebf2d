package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Bars renders a grouped bar chart, one bar per series per label. Nil points draw no bar.
func Bars(width, height int, series []Series, labels []string, opts Opts) (template.HTML, error) {
	if err := validateSeries(series, labels); err != nil {
		return "", err
	}
	f, err := newFrame(width, height, opts)
	if err != nil {
		return "", err
	}
	minVal, maxVal, _ := seriesBounds(series)
	f.setRange(minVal, maxVal, true)
	zeroY := f.y(0)

	groupWidth := f.chartWidth / float64(len(labels))
	barWidth := groupWidth * 0.7 / float64(len(series))

	var b strings.Builder
	f.open(&b, opts, "bar", "Gráfico de barras")
	f.grid(&b)
	f.axes(&b, zeroY)

	names, colors := seriesColors(series)
	for i, label := range labels {
		baseX := f.padding + float64(i)*groupWidth + groupWidth*0.15
		for si, s := range series {
			p := s.Values[i]
			if p == nil {
				continue
			}
			y, h := barPosition(*p, f.scale, zeroY, f.padding, f.bottom())
			fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" rx=\"3\" fill=\"%s\" aria-label=\"%s %s\"></rect>",
				baseX+float64(si)*barWidth, y, barWidth, h, colors[si], template.HTMLEscapeString(s.Name), template.HTMLEscapeString(label))
		}
		f.xLabel(&b, f.padding+float64(i)*groupWidth+groupWidth/2, label)
	}
	if len(series) > 1 {
		f.legend(&b, names, colors)
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func barPosition(value, scale, zeroY, top, bottom float64) (float64, float64) {
	if value >= 0 {
		height := value * scale
		y := zeroY - height
		if y < top {
			height -= top - y
			y = top
		}
		if height < 0 {
			height = 0
		}
		return y, height
	}
	height := math.Abs(value * scale)
	y := zeroY
	if y+height > bottom {
		height = bottom - y
	}
	if height < 0 {
		height = 0
	}
	return y, height
}
