package chart

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/tablero-fiscal/tablero/internal/chart/svg"
)

type fakeHandle struct {
	id       int
	released *[]int
}

func (h *fakeHandle) Release() { *h.released = append(*h.released, h.id) }

func TestSlotReleasesBeforeBuilding(t *testing.T) {
	var released []int
	var slot Slot
	for i := 1; i <= 3; i++ {
		id := i
		_, err := slot.Replace(func() (Handle, error) {
			if id > 1 && len(released) != id-1 {
				t.Fatalf("handle %d built before previous release (released=%v)", id, released)
			}
			return &fakeHandle{id: id, released: &released}, nil
		})
		if err != nil {
			t.Fatalf("replace: %v", err)
		}
	}
	if len(released) != 2 || released[0] != 1 || released[1] != 2 {
		t.Fatalf("unexpected release order %v", released)
	}
	slot.Close()
	if len(released) != 3 || slot.Current() != nil {
		t.Fatalf("close should release the live handle, got %v", released)
	}
}

func TestSlotEmptyAfterFailedBuild(t *testing.T) {
	var released []int
	var slot Slot
	_, _ = slot.Replace(func() (Handle, error) { return &fakeHandle{id: 1, released: &released}, nil })
	_, err := slot.Replace(func() (Handle, error) { return nil, errors.New("boom") })
	if err == nil {
		t.Fatalf("expected build error")
	}
	if slot.Current() != nil || len(released) != 1 {
		t.Fatalf("expected previous handle released and slot empty")
	}
}

func TestCanvasesKeepOneImagePerKey(t *testing.T) {
	canvases := NewCanvases()
	for i := 0; i < 3; i++ {
		out, err := canvases.Render("home/coverage", func(w io.Writer) error {
			_, err := w.Write([]byte("png"))
			return err
		})
		if err != nil || string(out) != "png" {
			t.Fatalf("render: %q %v", out, err)
		}
	}
	if canvases.Live() != 1 {
		t.Fatalf("expected one live canvas, got %d", canvases.Live())
	}
	canvases.Close()
	if canvases.Live() != 0 {
		t.Fatalf("expected no live canvases after close")
	}
}

func TestLinePNG(t *testing.T) {
	a, b, c := 50.0, 10.0, 24.5
	var buf bytes.Buffer
	err := LinePNG(&buf, "Interanual", []string{"Ene 26", "Feb 26"}, []svg.Series{
		{Name: "Coparticipación", Values: []*float64{&a, &b}},
		{Name: "Inflación", Values: []*float64{&c, nil}, Dashed: true},
	})
	if err != nil {
		t.Fatalf("line png: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected PNG signature")
	}
}

func TestLinePNGSinglePoint(t *testing.T) {
	v := 12.5
	var buf bytes.Buffer
	err := LinePNG(&buf, "Cobertura", []string{"Ene 26"}, []svg.Series{{Name: "Masa salarial", Values: []*float64{&v}}})
	if err != nil {
		t.Fatalf("single label: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected PNG signature")
	}

	buf.Reset()
	err = LinePNG(&buf, "Cobertura", []string{"Ene 26", "Feb 26", "Mar 26"}, []svg.Series{{Name: "Masa salarial", Values: []*float64{nil, &v, nil}}})
	if err != nil {
		t.Fatalf("single point among labels: %v", err)
	}
}

func TestLinePNGRequiresData(t *testing.T) {
	err := LinePNG(io.Discard, "Vacío", []string{"Ene 26", "Feb 26"}, []svg.Series{{Name: "Neto", Values: []*float64{nil, nil}}})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestBarPNGSingleBar(t *testing.T) {
	v := 1.62
	var buf bytes.Buffer
	if err := BarPNG(&buf, "Poder adquisitivo", []string{"Ene 26"}, svg.Series{Name: "CBT", Values: []*float64{&v}}); err != nil {
		t.Fatalf("single bar: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected PNG signature")
	}
}

func TestBarPNGRequiresData(t *testing.T) {
	err := BarPNG(io.Discard, "Vacío", []string{"Ene 26"}, svg.Series{Values: []*float64{nil}})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}
