package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/escolarhq/academico-api/database"
	"github.com/escolarhq/academico-api/model"
)

// newTestDB opens an isolated in-memory database migrated with the full
// model list. A single connection keeps every query on the same store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func createSubject(t *testing.T, db *gorm.DB, code, name string) *model.Subject {
	t.Helper()

	subject := model.Subject{Code: code, Name: name, Active: true, IsMandatory: true}
	require.NoError(t, db.Create(&subject).Error)
	return &subject
}

func createArea(t *testing.T, db *gorm.DB, name string, sortOrder int) *model.KnowledgeArea {
	t.Helper()

	area := model.KnowledgeArea{Name: name, SortOrder: sortOrder}
	require.NoError(t, db.Create(&area).Error)
	return &area
}

func createLevel(t *testing.T, db *gorm.DB, name string, sortOrder int) *model.Level {
	t.Helper()

	level := model.Level{Name: name, SortOrder: sortOrder}
	require.NoError(t, db.Create(&level).Error)
	return &level
}

func createGrade(t *testing.T, db *gorm.DB, levelID uint, name string, sortOrder int) *model.Grade {
	t.Helper()

	grade := model.Grade{LevelID: levelID, Name: name, SortOrder: sortOrder}
	require.NoError(t, db.Create(&grade).Error)
	return &grade
}
