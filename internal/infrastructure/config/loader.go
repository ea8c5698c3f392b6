package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/datatalk/assets"
	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/pkg/filesystem"
	"github.com/doeshing/datatalk/internal/ports"
)

// Environment variables consulted by the loader.
const (
	EnvConfigPath = "DATATALK_CONFIG"
	EnvBackendURL = "DATATALK_BACKEND_URL"
	EnvLogLevel   = "DATATALK_LOG_LEVEL"
	EnvLogFormat  = "DATATALK_LOG_FORMAT"
	EnvListen     = "DATATALK_LISTEN"
	EnvRedisAddr  = "DATATALK_REDIS_ADDR"
)

// FileLoader loads YAML configuration from ~/.datatalk/config.yaml (overridable via DATATALK_CONFIG).
type FileLoader struct {
	overridePath string
	envFiles     []string
}

// NewFileLoader builds a new loader. A .env file in the working directory is
// read before the environment overrides are applied.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path, envFiles: []string{".env"}}
}

// WithEnvFiles replaces the dotenv files consulted on Load.
func (l *FileLoader) WithEnvFiles(files ...string) *FileLoader {
	l.envFiles = files
	return l
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	l.loadEnvFiles()

	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}
		cfg := defaultConfig()
		if err := writeDefault(path, cfg); err != nil {
			return domain.Config{}, fmt.Errorf("write default config: %w", err)
		}
		return applyEnv(hydrateDefaults(cfg)), nil
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}

	return applyEnv(hydrateDefaults(cfg)), nil
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Save writes the given config back to disk.
func (l *FileLoader) Save(cfg domain.Config) error {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return err
	}
	return writeDefault(path, cfg)
}

// loadEnvFiles never overrides variables already present in the environment.
func (l *FileLoader) loadEnvFiles() {
	for _, file := range l.envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		_ = godotenv.Load(file)
	}
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.DataDir(), "config.yaml")
}

func ensureConfigDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, domain.DirectoryPermissions)
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

func defaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		// embedded YAML is built in; keep a usable config if it is ever broken
		return hydrateDefaults(domain.Config{
			ConfigFormatVersion: "1",
			History:             domain.HistorySettings{Enabled: true},
		})
	}
	return cfg
}

// DefaultConfig exposes the bootstrap configuration template.
func DefaultConfig() domain.Config {
	return hydrateDefaults(defaultConfig())
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = domain.DefaultBackendURL
	}
	if cfg.Backend.QueryPath == "" {
		cfg.Backend.QueryPath = domain.DefaultQueryPath
	}
	if cfg.Backend.Timeout == "" {
		cfg.Backend.Timeout = domain.DefaultBackendTimeout.String()
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = domain.DefaultListenAddress
	}
	if cfg.Server.ReadHeaderTimeout == "" {
		cfg.Server.ReadHeaderTimeout = domain.DefaultReadHeaderTimeout.String()
	}
	if cfg.Server.ShutdownTimeout == "" {
		cfg.Server.ShutdownTimeout = domain.DefaultShutdownTimeout.String()
	}
	if cfg.Server.SessionCookie == "" {
		cfg.Server.SessionCookie = domain.DefaultSessionCookie
	}
	if cfg.Server.SessionTTL == "" {
		cfg.Server.SessionTTL = domain.DefaultSessionTTL.String()
	}
	if cfg.Server.MaxSessions == 0 {
		cfg.Server.MaxSessions = domain.DefaultMaxSessions
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = domain.CacheBackendFile
	}
	if cfg.Cache.TTL == "" {
		cfg.Cache.TTL = domain.DefaultCacheTTL.String()
	}
	if cfg.Cache.MaxEntries <= 0 {
		cfg.Cache.MaxEntries = domain.DefaultMaxCacheEntries
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(filesystem.DataDir(), "cache", "responses")
	}
	cfg.Cache.Dir = filesystem.ExpandPath(cfg.Cache.Dir)
	if cfg.Cache.Redis.KeyPrefix == "" {
		cfg.Cache.Redis.KeyPrefix = domain.DefaultRedisKeyPrefix
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(filesystem.DataDir(), "history", "history.db")
	}
	cfg.History.Path = filesystem.ExpandPath(cfg.History.Path)
	if cfg.History.RetentionDays < 0 {
		cfg.History.RetentionDays = 0
	}
	return cfg
}

func applyEnv(cfg domain.Config) domain.Config {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		cfg.Server.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		cfg.Cache.Redis.Address = v
	}
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
