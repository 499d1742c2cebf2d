package dataset

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Loader fetches and decodes snapshots.
type Loader struct {
	provider Provider
	logger   *slog.Logger
	onError  func(Source)
}

// NewLoader constructs a loader. onError, when set, is called for every failed fetch.
func NewLoader(provider Provider, logger *slog.Logger, onError func(Source)) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{provider: provider, logger: logger, onError: onError}
}

// Load fetches one snapshot and decodes it with the decoder for its source.
func (l *Loader) Load(ctx context.Context, source Source) (*Dataset, error) {
	raw, err := l.provider.Fetch(ctx, source)
	if err != nil {
		return nil, l.fail(source, err)
	}
	ds, err := DecodeSource(source, raw)
	if err != nil {
		return nil, l.fail(source, err)
	}
	return ds, nil
}

// DecodeSource decodes raw with the decoder for source.
func DecodeSource(source Source, raw []byte) (*Dataset, error) {
	if source == SourcePersonal {
		return DecodePersonal(raw)
	}
	return Decode(raw)
}

// Bundle is the pair of snapshots the home view combines.
type Bundle struct {
	Main     *Dataset
	Personal *Dataset
}

// LoadBundle fetches the main and personal snapshots concurrently. A personal failure is
// logged and leaves Personal nil; a main failure fails the bundle.
func (l *Loader) LoadBundle(ctx context.Context) (Bundle, error) {
	var bundle Bundle
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ds, err := l.Load(gctx, SourceMain)
		if err != nil {
			return err
		}
		bundle.Main = ds
		return nil
	})
	g.Go(func() error {
		ds, err := l.Load(gctx, SourcePersonal)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				l.logger.Warn("personal snapshot unavailable", slog.Any("error", err))
			}
			return nil
		}
		bundle.Personal = ds
		return nil
	})
	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}
	return bundle, nil
}

func (l *Loader) fail(source Source, err error) error {
	var fe *FetchError
	if !errors.As(err, &fe) {
		err = &FetchError{Source: source, Err: err}
	}
	if l.onError != nil {
		l.onError(source)
	}
	l.logger.Error("snapshot fetch failed", slog.String("source", string(source)), slog.Any("error", err))
	return err
}
