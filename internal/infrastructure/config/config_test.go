package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "data.json", cfg.Store.Path)
	assert.Equal(t, IDStrategyTimestamp, cfg.Store.IDStrategy)
	assert.Equal(t, 10*time.Second, cfg.Store.LockTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "teamaster:teas", cfg.Redis.Key)
	assert.False(t, cfg.JWT.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/teas.db")
	t.Setenv("STORE_ID_STRATEGY", "sequence")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/teas.db", cfg.SQLite.Path)
	assert.Equal(t, IDStrategySequence, cfg.Store.IDStrategy)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "teamaster.yaml")
	content := "store:\n  backend: memory\nlogger:\n  level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "etcd"}},
		{name: "unknown id strategy", env: map[string]string{"STORE_ID_STRATEGY": "random"}},
		{name: "jwt without secret", env: map[string]string{"JWT_ENABLED": "true"}},
		{name: "port out of range", env: map[string]string{"SERVER_PORT": "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "tea", Password: "pw", Name: "teas", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=tea password=pw dbname=teas sslmode=disable", cfg.GetDSN())
}

// chdir changes the working directory for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
