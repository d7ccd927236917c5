package dependency

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func overridesByPath(overrides []Override) map[string]Value {
	out := make(map[string]Value, len(overrides))
	for _, o := range overrides {
		out[o.Path] = o.Value
	}
	return out
}

func TestPostgresqlOverrides(t *testing.T) {
	overrides, err := BuildOverrides("postgresql", map[string]interface{}{
		"db_name":      "app",
		"db_user":      "app_user",
		"db_password":  "pw",
		"cpu_cores":    float64(2),
		"memory_bytes": float64(4 << 30),
		"disk_bytes":   float64(20 << 30),
		"app_version":  "16.6.0",
	})
	require.NoError(t, err)

	got := overridesByPath(overrides)
	assert.Len(t, overrides, 9)
	assert.Equal(t, StringValue("app"), got["auth.database"])
	assert.Equal(t, StringValue("app_user"), got["auth.username"])
	assert.Equal(t, StringValue("pw"), got["auth.password"])
	assert.Equal(t, NumberValue(2), got["primary.resources.requests.cpu"])
	assert.Equal(t, NumberValue(2), got["primary.resources.limits.cpu"])
	assert.Equal(t, NumberValue(4<<30), got["primary.resources.requests.memory"])
	assert.Equal(t, NumberValue(4<<30), got["primary.resources.limits.memory"])
	assert.Equal(t, StringValue("20Gi"), got["primary.persistence.size"])
	assert.Equal(t, StringValue("16.6.0"), got["image.tag"])
}

func TestRedisOverrides(t *testing.T) {
	overrides, err := BuildOverrides("redis", map[string]interface{}{
		"cpu_cores":         1,
		"max_memory_policy": "allkeys-lru",
		"app_version":       "7.4.1",
	})
	require.NoError(t, err)

	got := overridesByPath(overrides)
	assert.Len(t, overrides, 3)
	assert.Equal(t, ListValue(StringValue("--maxmemory-policy allkeys-lru")), got["master.extraFlags"])
	assert.Equal(t, NumberValue(1), got["master.resources.requests.cpu"])
	assert.Equal(t, NumberValue(1), got["master.resources.limits.cpu"])
}

func TestOverridesSkipBlankValues(t *testing.T) {
	overrides, err := BuildOverrides("postgresql", map[string]interface{}{
		"db_name":     "",
		"db_user":     "  ",
		"db_password": nil,
	})
	require.NoError(t, err)
	assert.Empty(t, overrides)

	overrides, err = BuildOverrides("redis", map[string]interface{}{})
	require.NoError(t, err)
	assert.NotNil(t, overrides)
	assert.Empty(t, overrides)
}

func TestOverridesUnknownKey(t *testing.T) {
	_, err := BuildOverrides("postgresql", map[string]interface{}{"replicas": 3})
	assert.ErrorIs(t, err, ErrUnknownOverrideKey)
}

func TestOverridesUnknownDependency(t *testing.T) {
	_, err := BuildOverrides("mongodb", map[string]interface{}{})
	assert.ErrorIs(t, err, ErrUnknownDependency)
}

func TestOverridesRejectWrongType(t *testing.T) {
	_, err := BuildOverrides("postgresql", map[string]interface{}{"cpu_cores": true})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestDiskSize(t *testing.T) {
	v, err := diskSize(int64(10 << 30))
	require.NoError(t, err)
	assert.Equal(t, "10Gi", v)

	v, err = diskSize(float64(3 << 29))
	require.NoError(t, err)
	assert.Equal(t, "1Gi", v)
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Override{
		{Path: "a", Value: NumberValue(1.5)},
		{Path: "b", Value: ListValue(StringValue("x"))},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"path":"a","value":1.5},{"path":"b","value":["x"]}]`, string(data))

	var decoded []Override
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ValueTypeNumber, decoded[0].Value.Type())
	assert.Equal(t, []interface{}{"x"}, decoded[1].Value.Interface())
}
