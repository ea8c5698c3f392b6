package domain

// Config mirrors ~/.datatalk/config.yaml.
type Config struct {
	ConfigFormatVersion string          `yaml:"config_format_version"`
	Backend             BackendSettings `yaml:"backend"`
	Server              ServerSettings  `yaml:"server"`
	Logging             LogSettings     `yaml:"logging"`
	Cache               CacheSettings   `yaml:"cache"`
	History             HistorySettings `yaml:"history"`
}

// BackendSettings describes where questions are posted.
type BackendSettings struct {
	BaseURL   string `yaml:"base_url"`
	QueryPath string `yaml:"query_path"`
	Timeout   string `yaml:"timeout"`
}

// ServerSettings configures the browser front end.
type ServerSettings struct {
	Listen            string `yaml:"listen"`
	ReadHeaderTimeout string `yaml:"read_header_timeout"`
	ShutdownTimeout   string `yaml:"shutdown_timeout"`
	SessionCookie     string `yaml:"session_cookie"`
	SessionTTL        string `yaml:"session_ttl"`
	MaxSessions       int    `yaml:"max_sessions"`
}

// LogSettings selects the zap level and encoder.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CacheSettings controls the response cache.
type CacheSettings struct {
	Enabled    bool          `yaml:"enabled"`
	Backend    string        `yaml:"backend"`
	TTL        string        `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Dir        string        `yaml:"dir"`
	Redis      RedisSettings `yaml:"redis"`
}

// RedisSettings is used when cache.backend is "redis".
type RedisSettings struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// HistorySettings controls the exchange log.
type HistorySettings struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}
