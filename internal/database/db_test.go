package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryDB(t *testing.T, name string) *DB {
	t.Helper()
	db, err := New(Config{Path: "file::memory:", Profile: ProfileCache, Name: name})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBuildConnectionString(t *testing.T) {
	cache := buildConnectionString("/tmp/cache.db", ProfileCache)
	assert.Contains(t, cache, "/tmp/cache.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, cache, "synchronous(OFF)")

	standard := buildConnectionString("/tmp/std.db", ProfileStandard)
	assert.Contains(t, standard, "synchronous(NORMAL)")

	withQuery := buildConnectionString("file::memory:?cache=shared", ProfileCache)
	assert.Contains(t, withQuery, "cache=shared&_pragma=journal_mode(WAL)")
}

func TestMigrate_CacheSchema(t *testing.T) {
	db := newMemoryDB(t, "cache")
	require.NoError(t, db.Migrate())
	// idempotent
	require.NoError(t, db.Migrate())

	ctx := context.Background()
	_, err := db.ExecContext(ctx,
		`INSERT INTO candles (symbol, ts, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"SPY", "2026-01-02T16:00:00Z", 1.0, 2.0, 0.5, 1.5, 100.0)
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM candles`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db := newMemoryDB(t, "scratch")
	require.NoError(t, db.Migrate())

	_, err := db.ExecContext(context.Background(), `SELECT COUNT(*) FROM candles`)
	assert.Error(t, err)
}

func TestWithTransaction(t *testing.T) {
	db := newMemoryDB(t, "cache")
	require.NoError(t, db.Migrate())
	ctx := context.Background()

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO history_fetches (symbol, source, candle_count, fetched_at) VALUES ('SPY', 'file', 1, 1)`); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction failed: boom")

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history_fetches`).Scan(&count))
	assert.Equal(t, 0, count, "rolled back")

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")

	assert.Error(t, WithTransaction(nil, func(tx *sql.Tx) error { return nil }))
}

func TestNew_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	db, err := New(Config{Path: path, Profile: ProfileCache, Name: "cache"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	require.NoError(t, db.QuickCheck(context.Background()))

	stats, err := db.GetStats(context.Background())
	require.NoError(t, err)
	assert.Greater(t, stats.PageSize, int64(0))
	assert.Equal(t, "cache", db.Name())
	assert.Equal(t, ProfileCache, db.Profile())
}
