package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultBackendTimeout bounds a single POST /query round trip
	DefaultBackendTimeout = 60 * time.Second
	// DefaultReadHeaderTimeout is applied to the web front end
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultShutdownTimeout bounds graceful server shutdown
	DefaultShutdownTimeout = 5 * time.Second
	// DefaultSessionTTL is how long an idle browser session is kept
	DefaultSessionTTL = 30 * time.Minute
	// DefaultCacheTTL is how long a cached response stays valid
	DefaultCacheTTL = time.Hour
	// DefaultDoctorTimeout bounds the backend reachability probe
	DefaultDoctorTimeout = 5 * time.Second
)

// Backend and server defaults
const (
	DefaultBackendURL    = "http://localhost:8000"
	DefaultQueryPath     = "/query"
	DefaultListenAddress = "127.0.0.1:8080"
	DefaultSessionCookie = "datatalk_session"
	DefaultMaxSessions   = 1000
)

// Cache constants
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	// DefaultMaxCacheEntries is the maximum number of cache entries
	DefaultMaxCacheEntries = 100
	// DefaultRedisKeyPrefix namespaces cached responses in a shared Redis
	DefaultRedisKeyPrefix = "datatalk:response:"
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
	// DefaultHistorySearchLimit is the default number of search results to return
	DefaultHistorySearchLimit = 50
	// DefaultHistoryRetainDays is the default number of days to retain history
	DefaultHistoryRetainDays = 30
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
