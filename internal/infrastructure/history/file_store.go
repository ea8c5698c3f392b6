package history

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/ports"
)

// FileStore appends history records to a jsonl file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the jsonl file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save implements ports.HistoryRepository.
func (f *FileStore) Save(_ context.Context, record domain.Exchange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = file.Write(data)
	return err
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Clear removes the history file.
func (f *FileStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Records loads entries newest first (best-effort).
func (f *FileStore) Records(_ context.Context, limit int, search string) ([]domain.Exchange, error) {
	all, err := f.load()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	needle := strings.ToLower(search)
	var records []domain.Exchange
	for _, rec := range all {
		if needle != "" &&
			!strings.Contains(strings.ToLower(rec.Question), needle) &&
			!strings.Contains(strings.ToLower(rec.Summary), needle) {
			continue
		}
		records = append(records, rec)
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, nil
}

// PruneOlderThan rewrites the file without entries older than days.
func (f *FileStore) PruneOlderThan(_ context.Context, days int) error {
	all, err := f.load()
	if err != nil {
		return err
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	var kept []domain.Exchange
	for _, rec := range all {
		if !rec.Timestamp.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return writeJSONL(f.path, kept)
}

// ExportJSON copies the records to dest.
func (f *FileStore) ExportJSON(ctx context.Context, dest string) error {
	records, err := f.Records(ctx, 0, "")
	if err != nil {
		return err
	}
	return writeJSONL(dest, records)
}

func (f *FileStore) load() ([]domain.Exchange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	var records []domain.Exchange
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		var rec domain.Exchange
		if err := json.Unmarshal(line, &rec); err == nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

var _ ports.HistoryRepository = (*FileStore)(nil)
