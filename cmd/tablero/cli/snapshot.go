package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tablero-fiscal/tablero/internal/dataset"
)

// SnapshotCheckOptions defines the flags of the snapshot check command.
type SnapshotCheckOptions struct {
	Sources    []dataset.Source
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// SnapshotReport describes one validated snapshot.
type SnapshotReport struct {
	Source        string `json:"source"`
	OK            bool   `json:"ok"`
	Periods       int    `json:"periods"`
	DefaultPeriod string `json:"default_period,omitempty"`
	Latest        string `json:"latest,omitempty"`
	Error         string `json:"error,omitempty"`
}

// SnapshotCLI validates snapshot documents before they are published.
type SnapshotCLI struct {
	provider dataset.Provider
}

// NewSnapshotCLI wires the provider to read from.
func NewSnapshotCLI(provider dataset.Provider) *SnapshotCLI {
	return &SnapshotCLI{provider: provider}
}

// CheckCommand decodes every requested source and prints a report. It exits 10 when any
// snapshot fails to decode.
func (c *SnapshotCLI) CheckCommand(ctx context.Context, opts SnapshotCheckOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	sources := opts.Sources
	if len(sources) == 0 {
		sources = dataset.Sources
	}

	reports := make([]SnapshotReport, 0, len(sources))
	failed := false
	for _, source := range sources {
		report := c.check(ctx, source)
		failed = failed || !report.OK
		reports = append(reports, report)
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(reports); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "snapshot check: encode json: %v\n", err)
			return 1
		}
	} else {
		for _, r := range reports {
			if r.OK {
				_, _ = fmt.Fprintf(opts.Stdout, "%-9s ok    %d periods, default %s, latest %s\n", r.Source, r.Periods, r.DefaultPeriod, r.Latest)
			} else {
				_, _ = fmt.Fprintf(opts.Stdout, "%-9s FAIL  %s\n", r.Source, r.Error)
			}
		}
	}
	if failed {
		return 10
	}
	return 0
}

func (c *SnapshotCLI) check(ctx context.Context, source dataset.Source) SnapshotReport {
	report := SnapshotReport{Source: string(source)}
	raw, err := c.provider.Fetch(ctx, source)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	ds, err := dataset.DecodeSource(source, raw)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	periods := ds.Periods().Descending()
	report.OK = true
	report.Periods = len(periods)
	report.DefaultPeriod = ds.DefaultPeriod()
	if len(periods) > 0 {
		report.Latest = periods[0].ID
	}
	return report
}
