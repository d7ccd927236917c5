package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onprem-cd/internal/pkg/config"
)

func TestFileNames(t *testing.T) {
	assert.Equal(t, "acme-ci", Directory("acme", "ci"))
	assert.Equal(t, "acme-1.2.0.tgz", ChartFileName("acme", "1.2.0"))
	assert.Equal(t, "acme-1.2.0-values.yaml", ValuesFileName("acme", "1.2.0"))
}

func TestRepoClientFetch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "acme-ci/index.yaml", []byte("apiVersion: v1"), contentTypeYAML))
	require.NoError(t, store.Put(ctx, "acme-ci/acme-1.2.0.tgz", []byte{0x1f, 0x8b}, contentTypeArchive))

	repo := NewRepoClient(store)

	data, ct, err := repo.Fetch(ctx, "acme-ci", IndexFileName)
	require.NoError(t, err)
	assert.Equal(t, "apiVersion: v1", string(data))
	assert.Equal(t, contentTypeYAML, ct)

	_, ct, err = repo.Fetch(ctx, "acme-ci", "acme-1.2.0.tgz")
	require.NoError(t, err)
	assert.Equal(t, contentTypeArchive, ct)

	_, _, err = repo.Fetch(ctx, "acme-ops", IndexFileName)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepoClientRejectsTraversal(t *testing.T) {
	repo := NewRepoClient(NewMemoryStore())
	for _, name := range []string{"", "../acme-ops/index.yaml", ".secret.yaml", "chart.zip", `a\b.tgz`} {
		_, _, err := repo.Fetch(context.Background(), "acme-ci", name)
		assert.ErrorIs(t, err, ErrInvalidFileName, name)
	}
}

func TestRepoClientPutValues(t *testing.T) {
	ctx := context.Background()
	repo := NewRepoClient(NewMemoryStore())
	require.NoError(t, repo.PutValues(ctx, "acme-ci", "acme", "1.2.0", []byte("cache: {}")))

	data, _, err := repo.Fetch(ctx, "acme-ci", "acme-1.2.0-values.yaml")
	require.NoError(t, err)
	assert.Equal(t, "cache: {}", string(data))
}

func TestNewStore(t *testing.T) {
	store, err := New(context.Background(), &config.StorageConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = New(context.Background(), &config.StorageConfig{Driver: "s3"})
	assert.Error(t, err)
}
