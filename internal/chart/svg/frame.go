package svg

import (
	"errors"
	"fmt"
	"html/template"
	"math"
	"strings"
)

var (
	errNoSeries       = errors.New("svg: at least one series required")
	errNoLabels       = errors.New("svg: labels required")
	errViewport       = errors.New("svg: viewport too small")
	errLengthMismatch = errors.New("svg: series length must match labels")
)

// frame is the plotting area shared by the cartesian renderers.
type frame struct {
	width, height int
	padding       float64
	chartWidth    float64
	chartHeight   float64
	minVal        float64
	maxVal        float64
	scale         float64
	ticks         int
	axisColor     string
	gridColor     string
	suffix        string
}

func newFrame(width, height int, opts Opts) (*frame, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	padding := opts.Padding
	if padding <= 0 {
		padding = DefaultPadding
	}
	ticks := opts.TickCount
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	f := &frame{
		width:       width,
		height:      height,
		padding:     padding,
		chartWidth:  float64(width) - 2*padding,
		chartHeight: float64(height) - 2*padding,
		ticks:       ticks,
		axisColor:   fallback(opts.AxisColor, "#64748b"),
		gridColor:   fallback(opts.GridColor, "#e2e8f0"),
		suffix:      opts.TickSuffix,
	}
	if f.chartWidth <= 0 || f.chartHeight <= 0 {
		return nil, errViewport
	}
	return f, nil
}

func (f *frame) setRange(minVal, maxVal float64, zeroBased bool) {
	if zeroBased {
		if minVal > 0 {
			minVal = 0
		}
		if maxVal < 0 {
			maxVal = 0
		}
	}
	if almostEqual(maxVal, minVal) {
		maxVal = minVal + 1
	}
	f.minVal, f.maxVal = minVal, maxVal
	f.scale = f.chartHeight / (maxVal - minVal)
}

func (f *frame) y(value float64) float64 {
	return f.padding + f.chartHeight - (value-f.minVal)*f.scale
}

func (f *frame) bottom() float64 { return f.padding + f.chartHeight }

func (f *frame) open(b *strings.Builder, opts Opts, kind, defaultTitle string) {
	titleID := makeID(opts.Title, kind+"-title")
	descID := makeID(opts.Title, kind+"-desc")
	fmt.Fprintf(b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", f.width, f.height, titleID, descID)
	fmt.Fprintf(b, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, defaultTitle)))
	fmt.Fprintf(b, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, defaultTitle)))
}

func (f *frame) grid(b *strings.Builder) {
	for i := 0; i <= f.ticks; i++ {
		ratio := float64(i) / float64(f.ticks)
		y := f.padding + f.chartHeight - ratio*f.chartHeight
		value := f.minVal + (f.maxVal-f.minVal)*ratio
		fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke=\"%s\" stroke-width=\"0.5\" stroke-dasharray=\"2,4\" aria-hidden=\"true\"></line>", f.padding, y, f.padding+f.chartWidth, y, f.gridColor)
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"end\">%s</text>", f.padding-6, y+4, f.axisColor, template.HTMLEscapeString(formatTick(value)+f.suffix))
	}
}

func (f *frame) axes(b *strings.Builder, baseline float64) {
	fmt.Fprintf(b, "<g stroke=\"%s\" aria-label=\"Ejes\">", f.axisColor)
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", f.padding, f.padding, f.padding, f.bottom())
	fmt.Fprintf(b, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\" stroke-width=\"1\"></line>", f.padding, baseline, f.padding+f.chartWidth, baseline)
	b.WriteString("</g>")
}

func (f *frame) xLabel(b *strings.Builder, x float64, label string) {
	fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"middle\">%s</text>", x, f.bottom()+14, f.axisColor, template.HTMLEscapeString(label))
}

func (f *frame) legend(b *strings.Builder, names, colors []string) {
	legendY := f.padding - 12
	if legendY < 12 {
		legendY = 12
	}
	legendX := f.padding
	for i, name := range names {
		if name == "" {
			continue
		}
		fmt.Fprintf(b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, legendY-8, colors[i])
		fmt.Fprintf(b, "<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"10\" text-anchor=\"start\">%s</text>", legendX+14, legendY, f.axisColor, template.HTMLEscapeString(name))
		legendX += 14 + 6*float64(len([]rune(name))) + 16
	}
}

func validateSeries(series []Series, labels []string) error {
	if len(series) == 0 {
		return errNoSeries
	}
	if len(labels) == 0 {
		return errNoLabels
	}
	for _, s := range series {
		if len(s.Values) != len(labels) {
			return fmt.Errorf("%w: %q has %d points for %d labels", errLengthMismatch, s.Name, len(s.Values), len(labels))
		}
	}
	return nil
}

func seriesColors(series []Series) ([]string, []string) {
	names := make([]string, len(series))
	colors := make([]string, len(series))
	for i, s := range series {
		names[i] = s.Name
		colors[i] = fallback(s.Color, Palette[i%len(Palette)])
	}
	return names, colors
}

// seriesBounds spans every present point. ok is false when all points are gaps.
func seriesBounds(series []Series) (minVal, maxVal float64, ok bool) {
	for _, s := range series {
		for _, p := range s.Values {
			if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
				continue
			}
			if !ok {
				minVal, maxVal, ok = *p, *p, true
				continue
			}
			minVal = math.Min(minVal, *p)
			maxVal = math.Max(maxVal, *p)
		}
	}
	return minVal, maxVal, ok
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return fmt.Sprintf("%s-%s", cleaned, suffix)
}

func formatTick(v float64) string {
	abs := math.Abs(v)
	var out string
	switch {
	case abs >= 1_000_000_000_000:
		out = fmt.Sprintf("%.1fB", v/1_000_000_000_000)
	case abs >= 1_000_000_000:
		out = fmt.Sprintf("%.1fMM", v/1_000_000_000)
	case abs >= 1_000_000:
		out = fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		out = fmt.Sprintf("%.1fk", v/1_000)
	case almostEqual(v, math.Round(v)):
		out = fmt.Sprintf("%.0f", v)
	default:
		out = fmt.Sprintf("%.1f", v)
	}
	return strings.Replace(out, ".", ",", 1)
}
