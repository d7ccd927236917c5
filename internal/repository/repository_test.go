package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"onprem-cd/internal/model"
	"onprem-cd/internal/pkg/config"
	"onprem-cd/internal/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Database: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createProject(t *testing.T, db *gorm.DB, name string) *model.Project {
	t.Helper()
	p := &model.Project{Name: name}
	require.NoError(t, NewProjectRepository(db).Create(p))
	return p
}
