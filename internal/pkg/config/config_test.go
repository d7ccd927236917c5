package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
database:
  driver: sqlite
  database: "file::memory:"
sidecar:
  address: sidecar:50051
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sidecar:50051", cfg.Sidecar.Address)
	assert.Equal(t, 30*time.Second, cfg.Sidecar.Timeout)
	assert.Equal(t, 90, cfg.Heartbeat.WindowDays)
	assert.Equal(t, 91, cfg.Heartbeat.RetentionDays)
	assert.Equal(t, "onprem-ctx", cfg.Storage.Bucket)
	assert.Equal(t, "file::memory:", cfg.Database.GetDSN())
	assert.Same(t, cfg, GlobalConfig)
}

func TestGetDSN(t *testing.T) {
	mysql := DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306, Username: "u", Password: "p", Database: "cd"}
	assert.Equal(t, "u:p@tcp(db:3306)/cd?charset=utf8mb4&parseTime=True&loc=Local", mysql.GetDSN())

	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, Username: "u", Password: "p", Database: "cd", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=cd sslmode=disable", pg.GetDSN())
}

func TestHeartbeatLocation(t *testing.T) {
	assert.Equal(t, time.UTC, (&HeartbeatConfig{}).GetLocation())
	assert.Equal(t, time.UTC, (&HeartbeatConfig{Location: "Not/AZone"}).GetLocation())
}
