package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onprem-cd/internal/model"
	pkgErrors "onprem-cd/pkg/responses"
)

func TestSubscriberWithHelmRepo(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriberRepository(db)
	p := createProject(t, db, "acme")

	sub := &model.Subscriber{UUID: "0b6f2c1e-1111-4a4a-9c9c-000000000001", ProjectID: p.ID, Name: "customer-a", FullAgent: true}
	require.NoError(t, repo.Create(sub, p.Name))
	require.NotNil(t, sub.HelmRepo)

	require.NoError(t, repo.CreateHelmUser(&model.HelmUser{HelmRepoID: sub.HelmRepo.ID, Name: "ci", PasswordHash: "hash"}))
	assert.ErrorIs(t, repo.CreateHelmUser(&model.HelmUser{HelmRepoID: sub.HelmRepo.ID, Name: "ci", PasswordHash: "hash"}), pkgErrors.ErrRecordExists)

	got, err := repo.FindByUUID(sub.UUID)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Project.Name)
	require.NotNil(t, got.HelmRepo)
	require.Len(t, got.HelmRepo.HelmUsers, 1)

	user, err := repo.FindHelmUser("acme", "ci")
	require.NoError(t, err)
	assert.Equal(t, "hash", user.PasswordHash)

	_, err = repo.FindHelmUser("acme", "ops")
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)

	require.NoError(t, repo.SetVersion(sub.ID, 7))
	byVersion, err := repo.ListByVersion(7)
	require.NoError(t, err)
	assert.Len(t, byVersion, 1)

	assert.ErrorIs(t, repo.DeleteHelmUser(sub.HelmRepo.ID, "ops"), pkgErrors.ErrRecordNotFound)
	require.NoError(t, repo.Delete(sub.ID))
	_, err = repo.FindByID(sub.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)
}
