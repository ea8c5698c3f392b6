package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/datatalk/internal/domain"
	"github.com/doeshing/datatalk/internal/ports"
)

func exchange(id, question string, at time.Time) domain.Exchange {
	return domain.Exchange{
		ID:         id,
		Timestamp:  at,
		Question:   question,
		Summary:    "summary for " + question,
		RowCount:   2,
		Status:     domain.ExchangeOK,
		DurationMS: 42,
	}
}

func exerciseStore(t *testing.T, store ports.HistoryRepository) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Save(ctx, exchange("1", "total sales", now.Add(-2*time.Minute))))
	require.NoError(t, store.Save(ctx, exchange("2", "sales by region", now.Add(-time.Minute))))
	failed := exchange("3", "broken", now)
	failed.Status = domain.ExchangeError
	failed.Error = "HTTP error! Status: 500"
	failed.FromCache = true
	require.NoError(t, store.Save(ctx, failed))
	require.NoError(t, store.Save(ctx, exchange("4", "ancient", now.AddDate(0, 0, -90))))

	records, err := store.Records(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"3", "2", "1", "4"}, ids(records))
	assert.Equal(t, domain.ExchangeError, records[0].Status)
	assert.Equal(t, "HTTP error! Status: 500", records[0].Error)
	assert.True(t, records[0].FromCache)

	limited, err := store.Records(ctx, 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, ids(limited))

	found, err := store.Records(ctx, 0, "region")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(found))

	require.NoError(t, store.PruneOlderThan(ctx, 30))
	records, err = store.Records(ctx, 0, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "1"}, ids(records))

	dest := filepath.Join(t.TempDir(), "export.jsonl")
	require.NoError(t, store.ExportJSON(ctx, dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)

	require.NoError(t, store.Clear(ctx))
	records, err = store.Records(ctx, 0, "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func ids(records []domain.Exchange) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}
	return out
}

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	t.Cleanup(func() { _ = store.Close() })
	require.NotNil(t, store.db)

	exerciseStore(t, store)
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(filepath.Join(t.TempDir(), "history.jsonl")))
}

func TestSQLiteStoreFallsBackToFile(t *testing.T) {
	store := &SQLiteStore{fallback: NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))}

	exerciseStore(t, store)
}

func TestSQLiteStoreSurfacesQueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT id, timestamp, question").
		WithArgs("%x%", "%x%", 5).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectExec("INSERT INTO exchanges").
		WillReturnError(errors.New("database is locked"))

	store := NewSQLiteStoreWithDB(db)

	_, err = store.Records(context.Background(), 5, "x")
	assert.EqualError(t, err, "disk I/O error")

	err = store.Save(context.Background(), exchange("1", "q", time.Now()))
	assert.EqualError(t, err, "database is locked")

	assert.NoError(t, mock.ExpectationsWereMet())
}
