package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onprem-cd/internal/dto"
	"onprem-cd/pkg/constants"
	pkgErrors "onprem-cd/pkg/responses"
)

func TestCreateSubscriber(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, "acme")

	sub, err := env.subscribers.Create(&dto.CreateSubscriberRequest{ProjectID: p.ID, Name: "customer-a"})
	require.NoError(t, err)
	assert.Len(t, sub.UUID, 36)
	require.NotNil(t, sub.HelmRepo)
	assert.Equal(t, "acme", sub.HelmRepo.Name)
	assert.Empty(t, sub.HelmRepo.Users)

	user, err := env.subscribers.CreateHelmUser(&dto.CreateHelmUserRequest{SubscriberID: sub.ID, Name: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "acme-alice", user.Directory)
	assert.Len(t, user.Password, 32)
	assert.Equal(t, "helm repo add acme https://cd.example.com/helm/acme --username alice --password "+user.Password, user.AddRepoCommand)

	require.NoError(t, env.helm.Authenticate("acme", "alice", user.Password))
	assert.ErrorIs(t, env.helm.Authenticate("acme", "alice", "wrong"), pkgErrors.ErrHelmUserInvalid)
	assert.ErrorIs(t, env.helm.Authenticate("acme", "bob", user.Password), pkgErrors.ErrHelmUserInvalid)
}

func TestHelmUserUniqueAcrossSubscribers(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, "acme")
	a, err := env.subscribers.Create(&dto.CreateSubscriberRequest{ProjectID: p.ID, Name: "a"})
	require.NoError(t, err)
	b, err := env.subscribers.Create(&dto.CreateSubscriberRequest{ProjectID: p.ID, Name: "b"})
	require.NoError(t, err)

	_, err = env.subscribers.CreateHelmUser(&dto.CreateHelmUserRequest{SubscriberID: a.ID, Name: "ops"})
	require.NoError(t, err)
	_, err = env.subscribers.CreateHelmUser(&dto.CreateHelmUserRequest{SubscriberID: b.ID, Name: "ops"})
	requireCode(t, err, pkgErrors.CodeConflict)

	require.NoError(t, env.subscribers.DeleteHelmUser(&dto.DeleteHelmUserRequest{SubscriberID: a.ID, Name: "ops"}))
	_, err = env.subscribers.CreateHelmUser(&dto.CreateHelmUserRequest{SubscriberID: b.ID, Name: "ops"})
	require.NoError(t, err)
}

func TestIssueTokenRevokesPrevious(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, "acme")
	sub, err := env.subscribers.Create(&dto.CreateSubscriberRequest{ProjectID: p.ID, Name: "a"})
	require.NoError(t, err)

	first, err := env.subscribers.IssueToken(sub.ID)
	require.NoError(t, err)
	authed, err := env.agents.Authenticate(first.Token)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, authed.ID)

	second, err := env.subscribers.IssueToken(sub.ID)
	require.NoError(t, err)
	_, err = env.agents.Authenticate(first.Token)
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidToken)
	_, err = env.agents.Authenticate(second.Token)
	require.NoError(t, err)

	_, err = env.agents.Authenticate("not-a-token")
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidToken)
}

func TestDeploySubscriber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.project(t, "acme")
	v := env.version(t, p.ID, "1.0.0")
	env.service(t, v.ID, "web")
	sub, err := env.subscribers.Create(&dto.CreateSubscriberRequest{ProjectID: p.ID, Name: "a"})
	require.NoError(t, err)
	_, err = env.subscribers.CreateHelmUser(&dto.CreateHelmUserRequest{SubscriberID: sub.ID, Name: "ops"})
	require.NoError(t, err)

	_, err = env.subscribers.Deploy(ctx, &dto.DeploySubscriberRequest{ID: sub.ID, ProjectVersionID: v.ID})
	requireCode(t, err, pkgErrors.CodeConflict)

	env.publish(t, v.ID)
	deployed, err := env.subscribers.Deploy(ctx, &dto.DeploySubscriberRequest{ID: sub.ID, ProjectVersionID: v.ID})
	require.NoError(t, err)
	require.NotNil(t, deployed.ProjectVersionID)
	assert.Equal(t, v.ID, *deployed.ProjectVersionID)
	assert.Equal(t, []string{"acme-ops", "acme-ops"}, env.client.PublishedDirectories())

	action, err := env.agentRepo.ClaimPendingAction(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, action)
	assert.Equal(t, constants.AgentActionApplyVersion, action.Type)

	got, err := env.versions.GetByID(v.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.VersionStatePublished, got.State)
}
