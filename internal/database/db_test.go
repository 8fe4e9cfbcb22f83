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

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), "holdings.db"),
		Profile: ProfileStandard,
		Name:    "holdings",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestNewCreatesDirectoryAndConnects(t *testing.T) {
	dir := t.TempDir()

	db, err := New(Config{
		Path: filepath.Join(dir, "nested", "data", "holdings.db"),
		Name: "holdings",
	})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "holdings", db.Name())
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestMigrateAppliesRegisteredSchema(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())

	// Schema is idempotent.
	require.NoError(t, db.Migrate())

	var count int
	err := db.Conn().QueryRow("SELECT COUNT(*) FROM holdings").Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMigrateSkipsUnknownName(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "scratch.db"),
		Name: "scratch",
	})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Migrate())
}

func TestWithTransactionCommits(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO holdings (id, symbol, lots, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			"h1", "AAPL", "[]", "2024-01-02T00:00:00Z", "2024-01-02T00:00:00Z",
		)
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM holdings").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())

	boom := errors.New("boom")
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO holdings (id, symbol, lots, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			"h1", "AAPL", "[]", "2024-01-02T00:00:00Z", "2024-01-02T00:00:00Z",
		); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM holdings").Scan(&count))
	assert.Zero(t, count)
}

func TestWithTransactionRecoversPanic(t *testing.T) {
	db := newTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		panic("unexpected")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")
}
