package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onprem-cd/internal/dto"
	pkgErrors "onprem-cd/pkg/responses"
)

func fields(name string) dto.ServiceFields {
	return dto.ServiceFields{
		Name:        name,
		Image:       "ghcr.io/acme/web:v1",
		CPUCores:    0.5,
		MemoryBytes: 256 << 20,
	}
}

func TestCreateServiceValidation(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, "acme")
	v := env.version(t, p.ID, "1.0.0")

	tests := []struct {
		name   string
		mutate func(f *dto.ServiceFields)
	}{
		{"bad image", func(f *dto.ServiceFields) { f.Image = "nginx::latest" }},
		{"duplicate env", func(f *dto.ServiceFields) {
			f.EnvironmentVariables = []dto.EnvironmentVariable{{Name: "A", Value: "1"}, {Name: "A", Value: "2"}}
		}},
		{"duplicate secret", func(f *dto.ServiceFields) { f.Secrets = []string{"TOKEN", "TOKEN"} }},
		{"env and secret overlap", func(f *dto.ServiceFields) {
			f.EnvironmentVariables = []dto.EnvironmentVariable{{Name: "TOKEN", Value: "x"}}
			f.Secrets = []string{"TOKEN"}
		}},
		{"duplicate port", func(f *dto.ServiceFields) { f.Ports = []int{80, 80} }},
		{"pvc without mount path", func(f *dto.ServiceFields) {
			size := int64(1 << 30)
			f.PVCSizeBytes = &size
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fields("web")
			tt.mutate(&f)
			_, err := env.workloads.Create(&dto.CreateServiceRequest{ProjectVersionID: v.ID, ServiceFields: f})
			requireCode(t, err, pkgErrors.CodeBadRequest)
		})
	}
}

func TestCreateServiceDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, "acme")
	v := env.version(t, p.ID, "1.0.0")
	env.service(t, v.ID, "web")

	_, err := env.workloads.Create(&dto.CreateServiceRequest{ProjectVersionID: v.ID, ServiceFields: fields("web")})
	requireCode(t, err, pkgErrors.CodeConflict)
}

func TestServicePVCNameIsStable(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, "acme")
	v := env.version(t, p.ID, "1.0.0")

	f := fields("db")
	size, mount := int64(1<<30), "/data"
	f.PVCSizeBytes, f.PVCMountPath = &size, &mount
	password := "s3cret"
	f.ImageUsername, f.ImagePassword = "bot", &password

	created, err := env.workloads.Create(&dto.CreateServiceRequest{ProjectVersionID: v.ID, ServiceFields: f})
	require.NoError(t, err)
	require.NotNil(t, created.PVCName)
	assert.Regexp(t, `^pvc-[0-9a-f]{6}$`, *created.PVCName)
	assert.True(t, created.HasImagePassword)

	bigger := int64(2 << 30)
	f.PVCSizeBytes = &bigger
	f.ImagePassword = nil
	updated, err := env.workloads.Update(&dto.UpdateServiceRequest{ID: created.ID, ServiceFields: f})
	require.NoError(t, err)
	assert.Equal(t, *created.PVCName, *updated.PVCName)
	assert.Equal(t, bigger, *updated.PVCSizeBytes)
	assert.True(t, updated.HasImagePassword)
}

func TestServiceLockedAfterPublish(t *testing.T) {
	env := newTestEnv(t)
	p := env.project(t, "acme")
	v := env.version(t, p.ID, "1.0.0")
	svc := env.service(t, v.ID, "web")
	env.publish(t, v.ID)

	_, err := env.workloads.Create(&dto.CreateServiceRequest{ProjectVersionID: v.ID, ServiceFields: fields("worker")})
	assert.ErrorIs(t, err, pkgErrors.ErrVersionLocked)

	err = env.workloads.Delete(svc.ID)
	assert.ErrorIs(t, err, pkgErrors.ErrVersionLocked)

	_, err = env.versions.Unpublish(context.Background(), v.ID)
	require.NoError(t, err)
	require.NoError(t, env.workloads.Delete(svc.ID))

	list, err := env.workloads.ListByVersion(v.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
