package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

// StackedPercent renders one 100% column per label, stacking the series bottom-up.
// Values are percentages; nil segments are skipped.
func StackedPercent(width, height int, series []Series, labels []string, opts Opts) (template.HTML, error) {
	if err := validateSeries(series, labels); err != nil {
		return "", err
	}
	if opts.TickSuffix == "" {
		opts.TickSuffix = "%"
	}
	f, err := newFrame(width, height, opts)
	if err != nil {
		return "", err
	}
	f.setRange(0, 100, true)

	groupWidth := f.chartWidth / float64(len(labels))
	barWidth := groupWidth * 0.6

	var b strings.Builder
	f.open(&b, opts, "stacked", "Distribución porcentual")
	f.grid(&b)
	f.axes(&b, f.bottom())

	names, colors := seriesColors(series)
	for i, label := range labels {
		x := f.padding + float64(i)*groupWidth + (groupWidth-barWidth)/2
		acc := 0.0
		for si, s := range series {
			p := s.Values[i]
			if p == nil || *p <= 0 {
				continue
			}
			share := math.Min(*p, 100-acc)
			if share <= 0 {
				continue
			}
			top := f.y(acc + share)
			h := f.y(acc) - top
			fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\" aria-label=\"%s %s %.1f%%\"></rect>",
				x, top, barWidth, h, colors[si], template.HTMLEscapeString(s.Name), template.HTMLEscapeString(label), share)
			acc += share
		}
		f.xLabel(&b, x+barWidth/2, label)
	}
	f.legend(&b, names, colors)
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

// Doughnut renders share slices around a ring.
func Doughnut(size int, slices []Slice, opts Opts) (template.HTML, error) {
	if len(slices) == 0 {
		return "", errors.New("svg: slices required")
	}
	total := 0.0
	for _, s := range slices {
		if s.Value > 0 {
			total += s.Value
		}
	}
	if total <= 0 {
		return "", errors.New("svg: slices must have a positive total")
	}
	if size <= 0 {
		size = DefaultHeight
	}
	axisColor := fallback(opts.AxisColor, "#64748b")
	cx := float64(size) / 2
	radius := float64(size) * 0.32
	thickness := float64(size) * 0.14
	circumference := 2 * math.Pi * radius
	legendHeight := 16 * len(slices)

	var b strings.Builder
	titleID := makeID(opts.Title, "doughnut-title")
	descID := makeID(opts.Title, "doughnut-desc")
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", size, size+legendHeight, titleID, descID)
	fmt.Fprintf(&b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Distribución")))
	fmt.Fprintf(&b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Distribución")))

	offset := 0.0
	for i, s := range slices {
		if s.Value <= 0 {
			continue
		}
		length := s.Value / total * circumference
		color := fallback(s.Color, Palette[i%len(Palette)])
		fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"none\" stroke=\"%s\" stroke-width=\"%.2f\" stroke-dasharray=\"%.2f %.2f\" stroke-dashoffset=\"%.2f\" transform=\"rotate(-90 %.2f %.2f)\" aria-label=\"%s\"></circle>",
			cx, cx, radius, color, thickness, length, circumference-length, -offset, cx, cx, template.HTMLEscapeString(s.Label))
		offset += length
	}

	for i, s := range slices {
		y := float64(size) + float64(i*16)
		color := fallback(s.Color, Palette[i%len(Palette)])
		pct := 0.0
		if s.Value > 0 {
			pct = s.Value / total * 100
		}
		fmt.Fprintf(&b, "<rect x=\"12\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", y, color)
		fmt.Fprintf(&b, "<text x=\"28\" y=\"%.2f\" fill=\"%s\" font-size=\"11\">%s</text>", y+9, axisColor,
			template.HTMLEscapeString(fmt.Sprintf("%s %s%%", s.Label, formatTick(pct))))
	}
	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}
