package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"onprem-cd/internal/model"
	pkgErrors "onprem-cd/pkg/responses"
)

func TestDependencyListByVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewDependencyRepository(db)
	p := createProject(t, db, "acme")
	v1 := &model.ProjectVersion{ProjectID: p.ID, Version: "1.0.0"}
	v2 := &model.ProjectVersion{ProjectID: p.ID, Version: "2.0.0"}
	require.NoError(t, NewVersionRepository(db).Create(v1))
	require.NoError(t, NewVersionRepository(db).Create(v2))

	dep := func(versionID int64, name, chart string) *model.Dependency {
		return &model.Dependency{
			ProjectVersionID: versionID,
			Name:             name,
			ChartName:        chart,
			Version:          "20.x.x",
			RepoURL:          "oci://registry-1.docker.io/bitnamicharts/" + chart,
			Configs:          datatypes.JSONMap{"cpu_cores": 1},
		}
	}
	require.NoError(t, repo.Create(dep(v1.ID, "cache", "redis")))
	require.NoError(t, repo.Create(dep(v1.ID, "db", "postgresql")))
	require.NoError(t, repo.Create(dep(v2.ID, "cache", "redis")))
	assert.ErrorIs(t, repo.Create(dep(v1.ID, "cache", "redis")), pkgErrors.ErrRecordExists)

	list, err := repo.ListByVersion(v1.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cache", list[0].Name)
	assert.Equal(t, "db", list[1].Name)

	empty, err := repo.ListByVersion(999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
