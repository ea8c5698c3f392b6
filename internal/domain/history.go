package domain

import (
	"encoding/json"
	"time"
)

// ExchangeStatus is the terminal state of a sent submission.
type ExchangeStatus string

const (
	ExchangeOK    ExchangeStatus = "ok"
	ExchangeError ExchangeStatus = "error"
)

// Exchange captures one question/answer round trip for the history log.
type Exchange struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Question   string         `json:"question"`
	Summary    string         `json:"summary"`
	RowCount   int            `json:"row_count"`
	Status     ExchangeStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	FromCache  bool           `json:"from_cache"`
}

// CacheEntry stores a backend response addressed by question hash.
type CacheEntry struct {
	Key       string          `json:"key"`
	Question  string          `json:"question"`
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
}
