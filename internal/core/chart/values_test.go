package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValues(t *testing.T) {
	params, err := NewAssembler(testAgent()).Assemble(testVersion(), nil)
	require.NoError(t, err)

	vals, err := Values(params)
	require.NoError(t, err)

	size, err := vals.PathValue("cache.master.persistence.size")
	require.NoError(t, err)
	assert.Equal(t, "2Gi", size)

	flags, err := vals.PathValue("cache.master.extraFlags")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"--maxmemory-policy allkeys-lru"}, flags)

	tag, err := vals.PathValue("services.web.image.tag")
	require.NoError(t, err)
	assert.Equal(t, "v3", tag)
}

func TestValuesYAML(t *testing.T) {
	params, err := NewAssembler(testAgent()).Assemble(testVersion(), nil)
	require.NoError(t, err)

	out, err := ValuesYAML(params)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Contains(t, decoded, "cache")
	assert.Contains(t, decoded, "services")
	assert.Contains(t, string(out), "database-url")
}
