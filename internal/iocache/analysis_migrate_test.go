package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitrisk/hotspot/schema"
)

func tableExists(t *testing.T, dbPath, table string) bool {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&n))
	return n == 1
}

func TestMigrateAnalysis_NoneBackend(t *testing.T) {
	_, err := MigrateAnalysis(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "not supported")
}

func TestMigrateAnalysis_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migration.db")

	msg, err := MigrateAnalysis(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Equal(t, "Successfully migrated from version 0 to version 2", msg)
	assert.True(t, tableExists(t, dbPath, analysisRunsTable))
	assert.True(t, tableExists(t, dbPath, fileMetricsTable))

	msg, err = MigrateAnalysis(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)
	assert.Equal(t, "No migration needed. Database is already at version 2", msg)

	msg, err = MigrateAnalysis(schema.SQLiteBackend, dbPath, 1)
	require.NoError(t, err)
	assert.Equal(t, "Successfully migrated from version 2 to version 1", msg)
	assert.True(t, tableExists(t, dbPath, analysisRunsTable))
	assert.False(t, tableExists(t, dbPath, fileMetricsTable))

	msg, err = MigrateAnalysis(schema.SQLiteBackend, dbPath, 0)
	require.NoError(t, err)
	assert.Equal(t, "Successfully migrated from version 1 to version 0", msg)
	assert.False(t, tableExists(t, dbPath, analysisRunsTable))

	_, err = MigrateAnalysis(schema.SQLiteBackend, dbPath, 2)
	require.NoError(t, err)
	assert.True(t, tableExists(t, dbPath, fileMetricsTable))
}

func TestMigrateAnalysis_SQLiteInMemory(t *testing.T) {
	_, err := MigrateAnalysis(schema.SQLiteBackend, ":memory:", -1)
	require.NoError(t, err)
}

func TestMigrationsEmbeddedForEveryBackend(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		entries, err := migrationsFS.ReadDir("migrations/" + string(backend))
		require.NoError(t, err, backend)
		assert.Len(t, entries, 4, "%s needs an up and down file per version", backend)
	}
}
