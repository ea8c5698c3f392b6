// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and external
// adapters (infrastructure). The chat controller and renderer depend only on these
// abstractions, so the same core drives the terminal and browser surfaces.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., QueryBackend, ConfigProvider)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"time"

	"github.com/doeshing/datatalk/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.datatalk/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// QueryBackend posts a question to the question-answering service.
// A response status outside 2xx must surface as *domain.HTTPStatusError.
type QueryBackend interface {
	Query(ctx context.Context, question string) (domain.QueryResponse, error)
}

// BackendProber checks that the backend answers HTTP at all.
type BackendProber interface {
	Probe(ctx context.Context) (status int, err error)
}

// ResponseRenderer turns a backend response into display outputs.
type ResponseRenderer interface {
	Summary(domain.QueryResponse) string
	Table(rawRows []byte) (string, []domain.Row)
}

// CacheRepository stores successful backend responses by question key.
type CacheRepository interface {
	Get(ctx context.Context, key string) (domain.CacheEntry, bool, error)
	Set(ctx context.Context, entry domain.CacheEntry) error
	Entries(ctx context.Context) ([]domain.CacheEntry, error)
	Clear(ctx context.Context) error
}

// HistoryRepository persists exchanges for later inspection.
type HistoryRepository interface {
	Save(ctx context.Context, exchange domain.Exchange) error
	Records(ctx context.Context, limit int, search string) ([]domain.Exchange, error)
	Clear(ctx context.Context) error
	ExportJSON(ctx context.Context, dest string) error
	PruneOlderThan(ctx context.Context, days int) error
}

// LoadingIndicator shows progress while a request is in flight.
type LoadingIndicator interface {
	Show()
	Hide()
}

// Recorder observes submission outcomes (metrics).
type Recorder interface {
	ObserveSubmission(status domain.ExchangeStatus, elapsed time.Duration)
	ObserveRows(count int)
	ObserveCacheLookup(hit bool)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
