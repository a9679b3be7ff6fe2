package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE test_nodes (id TEXT PRIMARY KEY, path TEXT, sort_order INTEGER)").Error
	require.NoError(t, err)

	ctx := context.Background()
	columns, err := GetTableColumns(ctx, db, "test_nodes")
	require.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}
	assert.Equal(t, "text", colMap["id"])
	assert.Equal(t, "integer", colMap["sort_order"])

	// PRAGMA table_info returns an empty result for unknown tables
	cols, err := GetTableColumns(ctx, db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestMissingColumns(t *testing.T) {
	db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE test_nodes (id TEXT PRIMARY KEY, path TEXT)").Error)

	ctx := context.Background()
	missing, err := MissingColumns(ctx, db, "test_nodes", []string{"id", "PATH", "icon"})
	require.NoError(t, err)
	assert.Equal(t, []string{"icon"}, missing)

	missing, err = MissingColumns(ctx, db, "absent", []string{"id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, missing)
}
