package doctor

import (
	"context"
	"fmt"
	"time"

	appconfig "github.com/doeshing/datatalk/internal/application/config"
	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/ports"
)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Backend        ports.BackendProber
	History        ports.HistoryRepository
	Cache          ports.CacheRepository
	Timeout        time.Duration
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("format version %s", cfg.ConfigFormatVersion)))
	}

	checks = append(checks, s.backendCheck(ctx, cfg.Backend.BaseURL))
	checks = append(checks, s.historyCheck(ctx, cfg.History))
	checks = append(checks, s.cacheCheck(ctx, cfg.Cache))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) backendCheck(ctx context.Context, baseURL string) domain.HealthCheck {
	if s.Backend == nil {
		return warn("Backend", "client not initialized")
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultDoctorTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	status, err := s.Backend.Probe(ctx)
	if err != nil {
		return fail("Backend", fmt.Sprintf("%s unreachable: %v", baseURL, err))
	}
	return ok("Backend", fmt.Sprintf("%s answered HTTP %d", baseURL, status))
}

func (s *Service) historyCheck(ctx context.Context, settings domain.HistorySettings) domain.HealthCheck {
	if !settings.Enabled {
		return warn("History", "disabled in config")
	}
	if s.History == nil {
		return warn("History", "store not initialized")
	}
	records, err := s.History.Records(ctx, 1, "")
	if err != nil {
		return fail("History", err.Error())
	}
	if len(records) == 0 {
		return ok("History", fmt.Sprintf("%s (empty)", settings.Path))
	}
	return ok("History", fmt.Sprintf("%s (last question %s)", settings.Path, records[0].Timestamp.Format(domain.TimestampFormat)))
}

func (s *Service) cacheCheck(ctx context.Context, settings domain.CacheSettings) domain.HealthCheck {
	if !settings.Enabled {
		return ok("Response cache", "disabled")
	}
	if s.Cache == nil {
		return warn("Response cache", "enabled but not initialized")
	}
	entries, err := s.Cache.Entries(ctx)
	if err != nil {
		return fail("Response cache", fmt.Sprintf("%s backend: %v", settings.Backend, err))
	}
	return ok("Response cache", fmt.Sprintf("%s backend, %d entries", settings.Backend, len(entries)))
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
