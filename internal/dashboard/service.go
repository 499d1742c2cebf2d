package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tablero-fiscal/tablero/internal/chart"
	"github.com/tablero-fiscal/tablero/internal/dataset"
	"github.com/tablero-fiscal/tablero/internal/kpi"
)

// ErrChartNotFound is returned when a page has no chart with the requested id.
var ErrChartNotFound = errors.New("dashboard: chart not found")

// Outcomes reported to the observer for every resolved page.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Service assembles dashboard pages from the snapshot loader.
type Service struct {
	loader   *dataset.Loader
	profiles *Profiles
	canvases *chart.Canvases
	logger   *slog.Logger
	observe  func(page, outcome string)
}

// NewService wires the loader and page profiles. observe may be nil.
func NewService(loader *dataset.Loader, profiles *Profiles, logger *slog.Logger, observe func(page, outcome string)) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if observe == nil {
		observe = func(string, string) {}
	}
	return &Service{
		loader:   loader,
		profiles: profiles,
		canvases: chart.NewCanvases(),
		logger:   logger,
		observe:  observe,
	}
}

// Profiles exposes the configured page profiles.
func (s *Service) Profiles() *Profiles { return s.profiles }

// Close releases every rendered chart image.
func (s *Service) Close() { s.canvases.Close() }

type sources struct {
	data     *dataset.Dataset
	personal *dataset.Dataset
}

func (s *Service) load(ctx context.Context, profile Profile) (sources, error) {
	switch profile.ID {
	case PageHome:
		bundle, err := s.loader.LoadBundle(ctx)
		if err != nil {
			return sources{}, err
		}
		return sources{data: bundle.Main, personal: bundle.Personal}, nil
	}
	switch profile.Source {
	case SourcePersonal:
		ds, err := s.loader.Load(ctx, dataset.SourcePersonal)
		return sources{data: ds}, err
	case SourceAnnual:
		ds, err := s.loader.Load(ctx, dataset.SourceMain)
		if err != nil {
			return sources{}, err
		}
		return sources{data: ds.AnnualDataset()}, nil
	default:
		ds, err := s.loader.Load(ctx, dataset.SourceMain)
		return sources{data: ds}, err
	}
}

func build(profile Profile, src sources, periodID string) (*Page, error) {
	switch profile.ID {
	case PageHome:
		return BuildHome(src.data, src.personal, periodID, profile)
	case PageMonitor:
		return BuildMonitor(src.data, periodID, profile)
	case PageAnnual:
		return BuildAnnual(src.data, periodID, profile)
	case PagePersonal:
		return BuildPersonal(src.data, periodID, profile)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, profile.ID)
	}
}

// assemble builds the page without drawing charts. An empty or unknown period falls back
// to the snapshot default and sets a notice.
func (s *Service) assemble(ctx context.Context, pageID, periodID string) (*Page, error) {
	profile, err := s.profiles.Get(pageID)
	if err != nil {
		return nil, err
	}
	src, err := s.load(ctx, profile)
	if err != nil {
		s.observe(pageID, OutcomeError)
		return nil, err
	}

	id, notice := periodID, ""
	if id == "" {
		id = src.data.DefaultPeriod()
	} else if _, ok := src.data.Record(id); !ok {
		notice = fmt.Sprintf("No hay datos para el período %s. Se muestra el último período disponible.", id)
		id = src.data.DefaultPeriod()
	}

	page, err := build(profile, src, id)
	if err != nil {
		if errors.Is(err, kpi.ErrNotFound) {
			s.observe(pageID, OutcomeNotFound)
		} else {
			s.observe(pageID, OutcomeError)
		}
		return nil, err
	}
	page.Notice = notice
	if notice != "" {
		s.observe(pageID, OutcomeFallback)
	} else {
		s.observe(pageID, OutcomeOK)
	}
	return page, nil
}

// Page builds a page with its charts drawn as inline SVG. Charts that fail to draw are
// logged and left out.
func (s *Service) Page(ctx context.Context, pageID, periodID string) (*Page, error) {
	page, err := s.assemble(ctx, pageID, periodID)
	if err != nil {
		return nil, err
	}
	if err := page.Render(); err != nil {
		s.logger.Warn("chart render failed", slog.String("page", pageID), slog.Any("error", err))
	}
	return page, nil
}

// View resolves the page's indicators for exactly periodID, or the default period when
// periodID is empty. Unknown periods fail with kpi.ErrNotFound.
func (s *Service) View(ctx context.Context, pageID, periodID string) (kpi.View, error) {
	profile, err := s.profiles.Get(pageID)
	if err != nil {
		return kpi.View{}, err
	}
	src, err := s.load(ctx, profile)
	if err != nil {
		return kpi.View{}, err
	}
	if periodID == "" {
		periodID = src.data.DefaultPeriod()
	}
	view, err := kpi.ResolveWith(src.data, periodID, profile.ResolveOptions())
	if err != nil {
		if errors.Is(err, kpi.ErrNotFound) {
			s.observe(pageID, OutcomeNotFound)
		}
		return kpi.View{}, err
	}
	s.observe(pageID, OutcomeOK)
	return view, nil
}

// Periods lists the selectable periods of a page, newest first, with the default marked.
func (s *Service) Periods(ctx context.Context, pageID string) ([]Option, error) {
	profile, err := s.profiles.Get(pageID)
	if err != nil {
		return nil, err
	}
	src, err := s.load(ctx, profile)
	if err != nil {
		return nil, err
	}
	return periodOptions(src.data, src.data.DefaultPeriod()), nil
}

// Export returns the page without drawn charts, for CSV and PDF exports.
func (s *Service) Export(ctx context.Context, pageID, periodID string) (*Page, error) {
	return s.assemble(ctx, pageID, periodID)
}

// ChartPNG renders one chart of a page as PNG. Each page and chart pair keeps a single live
// image; a new rendering releases the previous one first.
func (s *Service) ChartPNG(ctx context.Context, pageID, periodID, chartID string) ([]byte, error) {
	page, err := s.assemble(ctx, pageID, periodID)
	if err != nil {
		return nil, err
	}
	spec, ok := page.Spec(chartID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrChartNotFound, chartID)
	}
	return s.canvases.Render(pageID+"/"+chartID, func(w io.Writer) error {
		return drawPNG(w, spec)
	})
}

func drawPNG(w io.Writer, spec ChartSpec) error {
	title := spec.Title
	switch {
	case spec.Kind == KindLine:
		return chart.LinePNG(w, title, spec.Labels, spec.Series)
	case len(spec.Series) == 1:
		return chart.BarPNG(w, title, spec.Labels, spec.Series[0])
	case spec.Kind == KindStacked:
		return chart.BarPNG(w, title+" ("+spec.Series[0].Name+" %)", spec.Labels, spec.Series[0])
	default:
		return chart.LinePNG(w, title, spec.Labels, spec.Series)
	}
}
