package svg

import (
	"errors"
	"strings"
	"testing"
)

func pts(values ...float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}

func TestLineProducesSVG(t *testing.T) {
	html, err := Line(640, 220, []Series{
		{Name: "Coparticipación", Values: pts(50, 10, 12)},
		{Name: "Inflación", Values: []*float64{pts(24.5)[0], nil, pts(20)[0]}, Dashed: true},
	}, []string{"Ene 26", "Feb 26", "Mar 26"}, Opts{Title: "Interanual", TickSuffix: "%"})
	if err != nil {
		t.Fatalf("line renderer error: %v", err)
	}
	out := string(html)
	if !strings.HasPrefix(out, "<svg") || !strings.Contains(out, "<path") {
		t.Fatalf("expected svg path output, got %s", out)
	}
	if !strings.Contains(out, "stroke-dasharray=\"5,5\"") {
		t.Fatalf("expected dashed series")
	}
	if strings.Count(out, " M") < 1 {
		t.Fatalf("expected the gap to restart the inflation path: %s", out)
	}
}

func TestLineRejectsMismatchedLabels(t *testing.T) {
	_, err := Line(0, 0, []Series{{Name: "a", Values: pts(1, 2)}}, []string{"x"}, Opts{})
	if !errors.Is(err, errLengthMismatch) {
		t.Fatalf("expected length mismatch, got %v", err)
	}
}

func TestBarsSkipsMissingPoints(t *testing.T) {
	html, err := Bars(420, 220, []Series{
		{Name: "Salario / CBT", Values: []*float64{pts(1.55)[0], nil}},
	}, []string{"Dic 25", "Ene 26"}, Opts{Title: "Poder adquisitivo"})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	if got := strings.Count(string(html), "<rect"); got != 1 {
		t.Fatalf("expected a single bar, got %d", got)
	}
}

func TestStackedPercent(t *testing.T) {
	html, err := StackedPercent(480, 240, []Series{
		{Name: "Masa salarial", Values: pts(40, 0)},
		{Name: "Resto", Values: pts(60, 100)},
	}, []string{"Ene 26", "Feb 26"}, Opts{Title: "Cobertura"})
	if err != nil {
		t.Fatalf("stacked renderer error: %v", err)
	}
	out := string(html)
	// three segments plus two legend swatches
	if got := strings.Count(out, "<rect"); got != 5 {
		t.Fatalf("expected 5 rects, got %d", got)
	}
	if !strings.Contains(out, "100%") {
		t.Fatalf("expected percent ticks")
	}
}

func TestDoughnut(t *testing.T) {
	html, err := Doughnut(200, []Slice{{Label: "Masa salarial", Value: 40}, {Label: "Resto", Value: 60}}, Opts{})
	if err != nil {
		t.Fatalf("doughnut renderer error: %v", err)
	}
	if got := strings.Count(string(html), "<circle"); got != 2 {
		t.Fatalf("expected 2 arcs, got %d", got)
	}
	if _, err := Doughnut(200, []Slice{{Label: "x", Value: 0}}, Opts{}); err == nil {
		t.Fatalf("expected error for empty doughnut")
	}
}
