package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"onprem-cd/internal/adapter/blobstore"
	"onprem-cd/internal/adapter/notification"
	"onprem-cd/internal/adapter/sidecar"
	"onprem-cd/internal/core/chart"
	"onprem-cd/internal/core/heartbeat"
	"onprem-cd/internal/core/publisher"
	"onprem-cd/internal/dto"
	"onprem-cd/internal/pkg/config"
	"onprem-cd/internal/pkg/database"
	"onprem-cd/internal/pkg/jwt"
	"onprem-cd/internal/repository"
	pkgErrors "onprem-cd/pkg/responses"
)

type testEnv struct {
	client *sidecar.MockClient
	blobs  *blobstore.MemoryStore
	signer *jwt.Signer

	versionRepo    repository.VersionRepository
	subscriberRepo repository.SubscriberRepository
	agentRepo      repository.AgentRepository

	projects     ProjectService
	versions     VersionService
	workloads    WorkloadService
	dependencies DependencyService
	subscribers  SubscriberService
	agents       *agentService
	helm         HelmRepoService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", Database: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := zap.NewNop()
	env := &testEnv{
		client:         sidecar.NewMockClient(),
		blobs:          blobstore.NewMemoryStore(),
		signer:         jwt.NewSigner("test-secret", "onprem-cd"),
		versionRepo:    repository.NewVersionRepository(db),
		subscriberRepo: repository.NewSubscriberRepository(db),
		agentRepo:      repository.NewAgentRepository(db),
	}
	projectRepo := repository.NewProjectRepository(db)
	repoClient := blobstore.NewRepoClient(env.blobs)
	assembler := chart.NewAssembler(chart.AgentTemplate{Name: "onprem-agent", Image: "ghcr.io/contextco/shepherd", Tag: "master"})
	pub := publisher.New(env.versionRepo, env.client, assembler, repoClient, notification.NewLogNotifier(logger), logger)
	targets := NewTargetBuilder(env.subscriberRepo, env.signer)

	env.projects = NewProjectService(projectRepo)
	env.versions = NewVersionService(env.versionRepo, projectRepo, env.subscriberRepo, pub, assembler, targets, logger)
	env.workloads = NewWorkloadService(repository.NewServiceRepository(db), env.versionRepo)
	env.dependencies = NewDependencyService(repository.NewDependencyRepository(db), env.versionRepo)
	env.subscribers = NewSubscriberService(env.subscriberRepo, projectRepo, env.versionRepo, env.agentRepo,
		pub, targets, env.signer, "https://cd.example.com/", logger)
	env.agents = NewAgentService(env.agentRepo, env.subscriberRepo, env.versionRepo, repoClient, env.signer,
		heartbeat.NewEngine(7, nil), logger).(*agentService)
	env.helm = NewHelmRepoService(env.subscriberRepo, repoClient)
	return env
}

func (e *testEnv) project(t *testing.T, name string) *dto.ProjectResponse {
	t.Helper()
	p, err := e.projects.Create(&dto.CreateProjectRequest{Name: name})
	require.NoError(t, err)
	return p
}

func (e *testEnv) version(t *testing.T, projectID int64, v string) *dto.VersionResponse {
	t.Helper()
	resp, err := e.versions.Create(&dto.CreateVersionRequest{ProjectID: projectID, Version: v})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) service(t *testing.T, versionID int64, name string) *dto.ServiceResponse {
	t.Helper()
	resp, err := e.workloads.Create(&dto.CreateServiceRequest{
		ProjectVersionID: versionID,
		ServiceFields: dto.ServiceFields{
			Name:        name,
			Image:       "nginx:1.27",
			CPUCores:    1,
			MemoryBytes: 512 << 20,
			Ports:       []int{80},
		},
	})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) publish(t *testing.T, versionID int64) {
	t.Helper()
	_, err := e.versions.Publish(context.Background(), versionID)
	require.NoError(t, err)
}

// requireCode 断言错误为指定业务码的 AppError
func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	var appErr *pkgErrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code, appErr.Error())
}
