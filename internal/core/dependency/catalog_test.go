package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	kinds := All()
	require.Len(t, kinds, 2)
	assert.Equal(t, "postgresql", kinds[0].Name)
	assert.Equal(t, "redis", kinds[1].Name)

	pg, err := Lookup("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "oci://registry-1.docker.io/bitnamicharts/postgresql", pg.RepositoryURL)
	assert.True(t, pg.HasVariant("16.x.x"))
	assert.False(t, pg.HasVariant("14.x.x"))

	paths, ok := pg.OverridePaths("cpu_cores")
	assert.True(t, ok)
	assert.Equal(t, []string{"primary.resources.requests.cpu", "primary.resources.limits.cpu"}, paths)

	redis, err := Lookup("redis")
	require.NoError(t, err)
	paths, ok = redis.OverridePaths("app_version")
	assert.True(t, ok)
	assert.Empty(t, paths)

	_, err = Lookup("mysql")
	assert.ErrorIs(t, err, ErrUnknownDependency)
}
