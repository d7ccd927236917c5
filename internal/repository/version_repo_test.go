package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"onprem-cd/internal/model"
	"onprem-cd/pkg/constants"
	pkgErrors "onprem-cd/pkg/responses"
)

func TestVersionCreateUniquePerProject(t *testing.T) {
	db := newTestDB(t)
	repo := NewVersionRepository(db)
	p := createProject(t, db, "acme")
	other := createProject(t, db, "globex")

	require.NoError(t, repo.Create(&model.ProjectVersion{ProjectID: p.ID, Version: "1.0.0"}))
	assert.ErrorIs(t, repo.Create(&model.ProjectVersion{ProjectID: p.ID, Version: "1.0.0"}), pkgErrors.ErrRecordExists)
	assert.NoError(t, repo.Create(&model.ProjectVersion{ProjectID: other.ID, Version: "1.0.0"}))

	v, err := repo.FindByProjectAndVersion(p.ID, "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, constants.VersionStateDraft, v.State)
}

func TestVersionTransitionState(t *testing.T) {
	db := newTestDB(t)
	repo := NewVersionRepository(db)
	p := createProject(t, db, "acme")
	v := &model.ProjectVersion{ProjectID: p.ID, Version: "1.0.0"}
	require.NoError(t, repo.Create(v))
	ctx := context.Background()

	require.NoError(t, repo.TransitionState(ctx, v.ID, constants.VersionStateDraft, constants.VersionStateBuilding))
	// 第二个发布请求看到的仍是 draft
	assert.ErrorIs(t, repo.TransitionState(ctx, v.ID, constants.VersionStateDraft, constants.VersionStateBuilding), pkgErrors.ErrStateConflict)
	// 不允许的迁移
	assert.ErrorIs(t, repo.TransitionState(ctx, v.ID, constants.VersionStateBuilding, constants.VersionStateDraft), pkgErrors.ErrStateConflict)

	require.NoError(t, repo.TransitionState(ctx, v.ID, constants.VersionStateBuilding, constants.VersionStatePublished))
	got, err := repo.FindByID(v.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.VersionStatePublished, got.State)
	assert.NotNil(t, got.PublishedAt)

	require.NoError(t, repo.TransitionState(ctx, v.ID, constants.VersionStatePublished, constants.VersionStateDraft))
	got, err = repo.FindByID(v.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.VersionStateDraft, got.State)
	assert.Nil(t, got.PublishedAt)
}

func TestVersionSnapshotAndClone(t *testing.T) {
	db := newTestDB(t)
	repo := NewVersionRepository(db)
	p := createProject(t, db, "acme")
	v := &model.ProjectVersion{ProjectID: p.ID, Version: "1.0.0"}
	require.NoError(t, repo.Create(v))

	require.NoError(t, NewServiceRepository(db).Create(&model.ProjectService{
		ProjectVersionID: v.ID,
		Name:             "web",
		Image:            "nginx:1.27",
		CPUCores:         1,
		MemoryBytes:      256 << 20,
		EnvironmentVars:  model.EnvVarList{{Name: "MODE", Value: "prod"}},
		Secrets:          model.StringList{"API_KEY"},
		Ports:            model.IntList{80, 443},
	}))
	require.NoError(t, NewDependencyRepository(db).Create(&model.Dependency{
		ProjectVersionID: v.ID,
		Name:             "db",
		ChartName:        "postgresql",
		Version:          "16.x.x",
		RepoURL:          "oci://registry-1.docker.io/bitnamicharts/postgresql",
		Configs:          datatypes.JSONMap{"db_name": "app", "cpu_cores": 1},
	}))

	snap, err := repo.FindSnapshot(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", snap.ProjectName())
	require.Len(t, snap.Services, 1)
	assert.Equal(t, model.IntList{80, 443}, snap.Services[0].Ports)
	assert.Equal(t, model.EnvVarList{{Name: "MODE", Value: "prod"}}, snap.Services[0].EnvironmentVars)
	require.Len(t, snap.Dependencies, 1)
	assert.Equal(t, "app", snap.Dependencies[0].Configs["db_name"])

	clone, err := repo.Clone(snap, "1.1.0", nil)
	require.NoError(t, err)
	assert.Equal(t, constants.VersionStateDraft, clone.State)
	require.NotNil(t, clone.PreviousVersionID)
	assert.Equal(t, v.ID, *clone.PreviousVersionID)

	cloned, err := repo.FindSnapshot(clone.ID)
	require.NoError(t, err)
	require.Len(t, cloned.Services, 1)
	assert.NotEqual(t, snap.Services[0].ID, cloned.Services[0].ID)
	assert.Equal(t, model.StringList{"API_KEY"}, cloned.Services[0].Secrets)
	require.Len(t, cloned.Dependencies, 1)
	assert.Equal(t, "postgresql", cloned.Dependencies[0].ChartName)

	// 原版本不受影响
	again, err := repo.FindSnapshot(v.ID)
	require.NoError(t, err)
	assert.Len(t, again.Services, 1)

	_, err = repo.Clone(snap, "1.1.0", nil)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordExists)
}

func TestVersionListStuck(t *testing.T) {
	db := newTestDB(t)
	repo := NewVersionRepository(db)
	p := createProject(t, db, "acme")
	v := &model.ProjectVersion{ProjectID: p.ID, Version: "1.0.0"}
	require.NoError(t, repo.Create(v))
	require.NoError(t, repo.TransitionState(context.Background(), v.ID, constants.VersionStateDraft, constants.VersionStateBuilding))

	stuck, err := repo.ListStuck(constants.VersionStateBuilding, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, "acme", stuck[0].ProjectName())

	stuck, err = repo.ListStuck(constants.VersionStateBuilding, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stuck)
}
