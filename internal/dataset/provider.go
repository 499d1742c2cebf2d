package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Source names one upstream snapshot.
type Source string

// Known snapshots.
const (
	SourceMain     Source = "main"
	SourcePersonal Source = "personal"
)

// Sources lists every snapshot the dashboards read.
var Sources = []Source{SourceMain, SourcePersonal}

// FileName is the snapshot document name relative to the provider root.
func (s Source) FileName() string { return string(s) + ".json" }

// ErrUnknownSource is returned for a source outside Sources.
var ErrUnknownSource = errors.New("dataset: unknown source")

// ParseSource validates a source name.
func ParseSource(name string) (Source, error) {
	for _, s := range Sources {
		if string(s) == strings.TrimSpace(name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, name)
}

// FetchError wraps any failure to obtain or decode a snapshot.
type FetchError struct {
	Source Source
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s snapshot: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Provider returns the raw JSON document for a snapshot.
type Provider interface {
	Fetch(ctx context.Context, source Source) ([]byte, error)
}

// FileProvider reads snapshots from a directory.
type FileProvider struct {
	Dir string
}

// NewFileProvider constructs a provider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{Dir: dir}
}

// Fetch reads <dir>/<source>.json.
func (p *FileProvider) Fetch(ctx context.Context, source Source) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}
	raw, err := os.ReadFile(filepath.Join(p.Dir, source.FileName()))
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}
	return raw, nil
}

// HTTPProvider fetches snapshots from a static host behind a circuit breaker.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewHTTPProvider constructs the provider. A nil client uses a client with the given timeout.
func NewHTTPProvider(baseURL string, client *http.Client, timeout time.Duration, logger *slog.Logger) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "snapshot-upstream",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("snapshot circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &HTTPProvider{baseURL: strings.TrimRight(baseURL, "/"), client: client, breaker: breaker}
}

// Fetch performs GET <base>/<source>.json.
func (p *HTTPProvider) Fetch(ctx context.Context, source Source) ([]byte, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/"+source.FileName(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return nil, fmt.Errorf("upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, &FetchError{Source: source, Err: err}
	}
	return result.([]byte), nil
}
