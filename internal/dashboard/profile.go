package dashboard

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/tablero-fiscal/tablero/internal/kpi"
)

// Page identifiers.
const (
	PageHome     = "home"
	PageMonitor  = "monitor"
	PageAnnual   = "anual"
	PagePersonal = "personal"
)

// Profile sources.
const (
	SourceMain     = "main"
	SourceAnnual   = "annual"
	SourcePersonal = "personal"
)

// ErrUnknownPage is returned for a page id without a profile.
var ErrUnknownPage = errors.New("dashboard: unknown page")

//go:embed pages.toml
var defaultPages []byte

// Profile parameterises one dashboard page.
type Profile struct {
	ID               string   `toml:"id" validate:"required,oneof=home monitor anual personal"`
	Title            string   `toml:"title" validate:"required"`
	Subtitle         string   `toml:"subtitle"`
	Path             string   `toml:"path" validate:"required,startswith=/"`
	Source           string   `toml:"source" validate:"required,oneof=main annual personal"`
	Metrics          []string `toml:"metrics" validate:"required,min=1,dive,required"`
	Precision        int      `toml:"precision" validate:"min=0,max=4"`
	EmbeddedPrevious bool     `toml:"embedded_prev"`
	RequiresAuth     bool     `toml:"requires_auth"`
	CoverageWindow   int      `toml:"coverage_window" validate:"min=0,max=60"`
}

// ResolveOptions maps the profile onto resolver options.
func (p Profile) ResolveOptions() kpi.Options {
	return kpi.Options{Metrics: p.Metrics, EmbeddedPrevious: p.EmbeddedPrevious}
}

type profileFile struct {
	Pages []Profile `toml:"page" validate:"required,min=1,dive"`
}

// Profiles is the validated set of page profiles.
type Profiles struct {
	ordered []Profile
	byID    map[string]Profile
}

// LoadProfiles reads the page profiles from path, or the built-in set when path is empty.
func LoadProfiles(path string) (*Profiles, error) {
	data := defaultPages
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read page profiles %s: %w", path, err)
		}
		data = raw
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes and validates a TOML profile document.
func ParseProfiles(data []byte) (*Profiles, error) {
	var file profileFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse page profiles: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("validate page profiles: %w", err)
	}
	out := &Profiles{byID: make(map[string]Profile, len(file.Pages))}
	for _, p := range file.Pages {
		if _, dup := out.byID[p.ID]; dup {
			return nil, fmt.Errorf("validate page profiles: duplicate page %q", p.ID)
		}
		out.byID[p.ID] = p
		out.ordered = append(out.ordered, p)
	}
	return out, nil
}

// Get returns the profile for id.
func (p *Profiles) Get(id string) (Profile, error) {
	profile, ok := p.byID[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownPage, id)
	}
	return profile, nil
}

// List returns the profiles in declaration order.
func (p *Profiles) List() []Profile {
	out := make([]Profile, len(p.ordered))
	copy(out, p.ordered)
	return out
}
