package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Line renders a multi-series line chart. A nil point breaks the line.
func Line(width, height int, series []Series, labels []string, opts Opts) (template.HTML, error) {
	if err := validateSeries(series, labels); err != nil {
		return "", err
	}
	f, err := newFrame(width, height, opts)
	if err != nil {
		return "", err
	}
	minVal, maxVal, _ := seriesBounds(series)
	f.setRange(minVal, maxVal, opts.ZeroBased)

	step := 0.0
	if len(labels) > 1 {
		step = f.chartWidth / float64(len(labels)-1)
	}
	xAt := func(i int) float64 {
		if len(labels) == 1 {
			return f.padding + f.chartWidth/2
		}
		return f.padding + float64(i)*step
	}

	var b strings.Builder
	f.open(&b, opts, "line", "Gráfico de líneas")
	f.grid(&b)
	baseline := f.bottom()
	if f.minVal < 0 && f.maxVal > 0 {
		baseline = f.y(0)
	}
	f.axes(&b, baseline)

	names, colors := seriesColors(series)
	for si, s := range series {
		var path strings.Builder
		penDown := false
		for i, p := range s.Values {
			if p == nil {
				penDown = false
				continue
			}
			cmd := "L"
			if !penDown {
				cmd = "M"
			}
			if path.Len() > 0 {
				path.WriteByte(' ')
			}
			fmt.Fprintf(&path, "%s%.2f %.2f", cmd, xAt(i), f.y(*p))
			penDown = true
		}
		if path.Len() == 0 {
			continue
		}
		dash := ""
		if s.Dashed {
			dash = " stroke-dasharray=\"5,5\""
		}
		fmt.Fprintf(&b, "<path d=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"2\" stroke-linejoin=\"round\" stroke-linecap=\"round\"%s aria-label=\"%s\"></path>",
			path.String(), colors[si], dash, template.HTMLEscapeString(s.Name))
		if opts.ShowDots {
			for i, p := range s.Values {
				if p == nil {
					continue
				}
				fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"3\" fill=\"%s\"></circle>", xAt(i), f.y(*p), colors[si])
			}
		}
	}

	for i, label := range labels {
		f.xLabel(&b, xAt(i), label)
	}
	f.legend(&b, names, colors)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
