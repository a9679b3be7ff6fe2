package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB creates a GORM DB on the mysql dialect backed by sqlmock.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestStore_GetStructure_MySQL(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := New(gormDB, Config{}, zap.NewNop())

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "parent_id", "tenant_id", "path", "name", "icon", "sort_order", "node_type", "collection_def", "translations", "created_at", "updated_at"}).
		AddRow("cat-1", nil, "acme", "/blog", "blog", "", 0, "category", "null", "[]", now, now).
		AddRow("col-1", "cat-1", "acme", "/blog/posts", "posts", "mdi:post", 1, "collection", `{"_id":"C1","name":"posts"}`, `[{"languageTag":"en","translationName":"Posts"}]`, now, now)

	mock.ExpectQuery("SELECT \\* FROM `content_nodes` WHERE tenant_id = \\?").
		WithArgs("acme").
		WillReturnRows(rows)

	res, err := s.GetStructure(context.Background(), StructureQuery{TenantID: "acme", BypassCache: true})
	require.NoError(t, err)
	require.Len(t, res.Nodes, 2)

	posts := res.Nodes[1]
	assert.Equal(t, "cat-1", posts.Parent())
	require.NotNil(t, posts.CollectionDef)
	assert.Equal(t, "C1", posts.CollectionDef.ID)
	assert.Equal(t, "Posts", posts.Translations[0].TranslationName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetStructure_Error(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := New(gormDB, Config{}, zap.NewNop())

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	_, err := s.GetStructure(context.Background(), StructureQuery{BypassCache: true})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStore_Delete_MySQL(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := New(gormDB, Config{}, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `content_nodes` WHERE").
		WithArgs("", "/blog", 6, "/blog/").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, s.Delete(context.Background(), "", "/blog"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_BulkUpdate_RollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	s := New(gormDB, Config{}, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `content_nodes`").WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := s.BulkUpdate(context.Background(), "", []Update{{Path: "/a"}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock")
	assert.NoError(t, mock.ExpectationsWereMet())
}
