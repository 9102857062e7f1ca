package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_SetGet(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Set(ctx, "k1", "v1"))

	got, ok, err := db.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1", got)
}

func TestSQLite_GetAbsent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	_, ok, err := db.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLite_Overwrite(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Set(ctx, "k", "first"))
	require.NoError(t, db.Set(ctx, "k", "second"))

	got, ok, err := db.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestSQLite_Remove(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.Set(ctx, "k", "v"))
	require.NoError(t, db.Remove(ctx, "k"))

	_, ok, err := db.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an absent key is a no-op, not an error.
	require.NoError(t, db.Remove(ctx, "k"))
}

func TestSQLite_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, "k", "survives"))
	require.NoError(t, db.Close())

	db2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer db2.Close()

	got, ok, err := db2.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "survives", got)
}
