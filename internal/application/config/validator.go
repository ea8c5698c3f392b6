package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/doeshing/datatalk/internal/domain"
)

// Validate ensures config structure is consistent.
func Validate(cfg domain.Config) error {
	if err := validateBackend(cfg.Backend); err != nil {
		return err
	}
	if err := validateServer(cfg.Server); err != nil {
		return err
	}
	if err := validateLogging(cfg.Logging); err != nil {
		return err
	}
	if err := validateCache(cfg.Cache); err != nil {
		return err
	}
	if err := validateHistory(cfg.History); err != nil {
		return err
	}
	return nil
}

// Durations parses the duration fields once they are known to be valid.
type Durations struct {
	BackendTimeout    time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	CacheTTL          time.Duration
	SessionTTL        time.Duration
}

// ParseDurations returns the config durations, falling back to defaults for blank fields.
func ParseDurations(cfg domain.Config) (Durations, error) {
	var (
		d   Durations
		err error
	)
	if d.BackendTimeout, err = parseDuration("backend.timeout", cfg.Backend.Timeout, domain.DefaultBackendTimeout); err != nil {
		return d, err
	}
	if d.ReadHeaderTimeout, err = parseDuration("server.read_header_timeout", cfg.Server.ReadHeaderTimeout, domain.DefaultReadHeaderTimeout); err != nil {
		return d, err
	}
	if d.ShutdownTimeout, err = parseDuration("server.shutdown_timeout", cfg.Server.ShutdownTimeout, domain.DefaultShutdownTimeout); err != nil {
		return d, err
	}
	if d.CacheTTL, err = parseDuration("cache.ttl", cfg.Cache.TTL, domain.DefaultCacheTTL); err != nil {
		return d, err
	}
	if d.SessionTTL, err = parseDuration("server.session_ttl", cfg.Server.SessionTTL, domain.DefaultSessionTTL); err != nil {
		return d, err
	}
	return d, nil
}

func validateBackend(backend domain.BackendSettings) error {
	parsed, err := url.Parse(backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url invalid: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend.base_url must be http or https, got %q", backend.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("backend.base_url must include a host")
	}
	if backend.QueryPath != "" && !strings.HasPrefix(backend.QueryPath, "/") {
		return fmt.Errorf("backend.query_path must start with /, got %s", backend.QueryPath)
	}
	if _, err := parseDuration("backend.timeout", backend.Timeout, domain.DefaultBackendTimeout); err != nil {
		return err
	}
	return nil
}

func validateServer(server domain.ServerSettings) error {
	if server.Listen == "" {
		return fmt.Errorf("server.listen must be set")
	}
	if _, err := parseDuration("server.read_header_timeout", server.ReadHeaderTimeout, domain.DefaultReadHeaderTimeout); err != nil {
		return err
	}
	if _, err := parseDuration("server.shutdown_timeout", server.ShutdownTimeout, domain.DefaultShutdownTimeout); err != nil {
		return err
	}
	if _, err := parseDuration("server.session_ttl", server.SessionTTL, domain.DefaultSessionTTL); err != nil {
		return err
	}
	if server.MaxSessions < 0 {
		return fmt.Errorf("server.max_sessions must be >= 0, got %d", server.MaxSessions)
	}
	return nil
}

func validateLogging(logging domain.LogSettings) error {
	switch strings.ToLower(logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug|info|warn|error, got %s", logging.Level)
	}
	switch strings.ToLower(logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console|json, got %s", logging.Format)
	}
	return nil
}

func validateCache(cache domain.CacheSettings) error {
	if _, err := parseDuration("cache.ttl", cache.TTL, domain.DefaultCacheTTL); err != nil {
		return err
	}
	if cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be > 0")
	}
	switch cache.Backend {
	case "", domain.CacheBackendFile:
	case domain.CacheBackendRedis:
		if cache.Enabled && cache.Redis.Address == "" {
			return fmt.Errorf("cache.redis.address must be set when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be file|redis, got %s", cache.Backend)
	}
	return nil
}

func validateHistory(history domain.HistorySettings) error {
	if history.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must be >= 0")
	}
	if history.Enabled && history.Path == "" {
		return fmt.Errorf("history.path must be set when history is enabled")
	}
	return nil
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s invalid: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", field)
	}
	return d, nil
}
