// Package history persists question/answer exchanges.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/ports"
)

const createExchangesTable = `CREATE TABLE IF NOT EXISTS exchanges (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	question TEXT NOT NULL,
	summary TEXT,
	row_count INTEGER,
	status TEXT,
	error TEXT,
	duration_ms INTEGER,
	from_cache INTEGER
);`

// timestampLayout is fixed width so timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore persists history in a SQLite database.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback *FileStore
	mu       sync.Mutex
}

// NewSQLiteStore creates (or opens) the database at path. When the database
// cannot be opened, records go to a JSONL file next to it instead.
func NewSQLiteStore(path string) *SQLiteStore {
	fallback := NewFileStore(strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl")
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	store := &SQLiteStore{db: db, path: path, fallback: fallback}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return &SQLiteStore{path: path, fallback: fallback}
	}
	return store
}

// NewSQLiteStoreWithDB uses an already opened database.
func NewSQLiteStoreWithDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.ExecContext(ctx, createExchangesTable)
	return err
}

// Save inserts a new record.
func (s *SQLiteStore) Save(ctx context.Context, rec domain.Exchange) error {
	if s.db == nil {
		return s.fallback.Save(ctx, rec)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO exchanges
		(id, timestamp, question, summary, row_count, status, error, duration_ms, from_cache)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.UTC().Format(timestampLayout),
		rec.Question,
		rec.Summary,
		rec.RowCount,
		string(rec.Status),
		rec.Error,
		rec.DurationMS,
		boolToInt(rec.FromCache),
	)
	return err
}

// Records returns history entries, newest first (limit/search optional).
func (s *SQLiteStore) Records(ctx context.Context, limit int, search string) ([]domain.Exchange, error) {
	if s.db == nil {
		return s.fallback.Records(ctx, limit, search)
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT id, timestamp, question, summary, row_count, status, error, duration_ms, from_cache FROM exchanges")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE question LIKE ? OR summary LIKE ?")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	builder.WriteString(" ORDER BY timestamp DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.Exchange
	for rows.Next() {
		var rec domain.Exchange
		var ts, status string
		var summary, errText sql.NullString
		var fromCache int
		if err := rows.Scan(&rec.ID, &ts, &rec.Question, &summary, &rec.RowCount, &status, &errText, &rec.DurationMS, &fromCache); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timestampLayout, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Summary = summary.String
		rec.Error = errText.String
		rec.Status = domain.ExchangeStatus(status)
		rec.FromCache = fromCache == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if s.db == nil {
		return s.fallback.Clear(ctx)
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM exchanges")
	return err
}

// PruneOlderThan deletes entries older than the given number of days.
func (s *SQLiteStore) PruneOlderThan(ctx context.Context, days int) error {
	if s.db == nil {
		return s.fallback.PruneOlderThan(ctx, days)
	}
	cutoff := time.Now().AddDate(0, 0, -days).UTC().Format(timestampLayout)
	_, err := s.db.ExecContext(ctx, "DELETE FROM exchanges WHERE timestamp < ?", cutoff)
	return err
}

// ExportJSON writes the exchange table to a jsonl file.
func (s *SQLiteStore) ExportJSON(ctx context.Context, dest string) error {
	records, err := s.Records(ctx, 0, "")
	if err != nil {
		return err
	}
	return writeJSONL(dest, records)
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func writeJSONL(dest string, records []domain.Exchange) error {
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := file.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
