package doctor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/infrastructure/backend"
	"github.com/doeshing/datatalk/internal/infrastructure/cache"
	"github.com/doeshing/datatalk/internal/infrastructure/history"
	"github.com/doeshing/datatalk/internal/pkg/logger"
)

type staticConfig struct {
	cfg domain.Config
	err error
}

func (s staticConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

func baseConfig(t *testing.T, backendURL string) domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Backend:             domain.BackendSettings{BaseURL: backendURL, QueryPath: "/query", Timeout: "5s"},
		Server:              domain.ServerSettings{Listen: "127.0.0.1:0"},
		Cache:               domain.CacheSettings{Enabled: true, Backend: "file", TTL: "1h", MaxEntries: 5, Dir: t.TempDir()},
		History:             domain.HistorySettings{Enabled: true, Path: filepath.Join(t.TempDir(), "history.db")},
	}
}

func statuses(report domain.HealthReport) map[string]domain.HealthStatus {
	out := map[string]domain.HealthStatus{}
	for _, check := range report.Checks {
		out[check.Name] = check.Status
	}
	return out
}

func TestRunAllHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := baseConfig(t, srv.URL)
	store := history.NewSQLiteStore(cfg.History.Path)
	defer store.Close()

	svc := &Service{
		ConfigProvider: staticConfig{cfg: cfg},
		Backend:        backend.NewHTTPClient(cfg.Backend, logger.NewZapAdapter(zaptest.NewLogger(t))),
		History:        store,
		Cache:          cache.NewFileCache(cfg.Cache.Dir, time.Hour, 5),
	}
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Failed())
	assert.Equal(t, map[string]domain.HealthStatus{
		"Config file":    domain.HealthOK,
		"Backend":        domain.HealthOK,
		"History":        domain.HealthOK,
		"Response cache": domain.HealthOK,
	}, statuses(report))
}

type downBackend struct{}

func (downBackend) Probe(context.Context) (int, error) {
	return 0, errors.New("connection refused")
}

func TestRunReportsUnreachableBackend(t *testing.T) {
	cfg := baseConfig(t, "http://127.0.0.1:1")
	cfg.History.Enabled = false
	cfg.Cache.Enabled = false

	svc := &Service{ConfigProvider: staticConfig{cfg: cfg}, Backend: downBackend{}, Timeout: time.Second}
	report, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Failed())
	got := statuses(report)
	assert.Equal(t, domain.HealthError, got["Backend"])
	assert.Equal(t, domain.HealthWarn, got["History"])
	assert.Equal(t, domain.HealthOK, got["Response cache"])
}

func TestRunConfigFailure(t *testing.T) {
	svc := &Service{ConfigProvider: staticConfig{err: errors.New("bad yaml")}}
	report, err := svc.Run(context.Background())
	require.Error(t, err)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, domain.HealthError, report.Checks[0].Status)
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := baseConfig(t, "not-a-url")
	cfg.History.Enabled = false
	cfg.Cache.Enabled = false
	svc := &Service{ConfigProvider: staticConfig{cfg: cfg}, Backend: downBackend{}}

	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.HealthError, statuses(report)["Config file"])
}
