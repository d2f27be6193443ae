package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teamaster/core/internal/application/services"
	"github.com/teamaster/core/internal/domain/entities"
	"github.com/teamaster/core/internal/infrastructure/config"
	"github.com/teamaster/core/internal/infrastructure/logger"
)

// useFileStore points the commands at a fresh data file
func useFileStore(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "data.json")
	t.Setenv("STORE_BACKEND", config.BackendFile)
	t.Setenv("STORE_PATH", path)
	t.Setenv("STORE_ID_STRATEGY", config.IDStrategySequence)
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddThenGet(t *testing.T) {
	path := useFileStore(t)

	_, err := run(t, "add", "--name", "Green Tea", "--description", "Grassy")
	require.NoError(t, err)
	_, err = run(t, "add", "--name", "Green Tea", "--description", "Sweet")
	require.NoError(t, err)

	out, err := run(t, "get", "Green Tea", "--output", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Green Tea","description":"Sweet"}`, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"id\": 1,\n    \"name\": \"Green Tea\",\n    \"description\": \"Sweet\"\n  }\n]", string(data))
}

func TestAddRequiresName(t *testing.T) {
	useFileStore(t)

	_, err := run(t, "add", "--description", "nameless")
	assert.Error(t, err)

	_, err = run(t, "add", "--name", "")
	assert.Error(t, err)
}

func TestUnknownOutputFormatWritesNothing(t *testing.T) {
	path := useFileStore(t)

	_, err := run(t, "add", "--name", "Green Tea", "--description", "x", "--output", "bogus")
	assert.ErrorContains(t, err, `unknown output format "bogus"`)
	assert.NoFileExists(t, path)

	_, err = run(t, "get", "Green Tea", "-o", "bogus")
	assert.ErrorContains(t, err, `unknown output format "bogus"`)
}

func TestAddReportsConflict(t *testing.T) {
	path := useFileStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"name":"A"},{"id":1,"name":"B"}]`), 0o644))

	_, err := run(t, "add", "--name", "B", "--description", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Tea with id 1 already exists")
	assert.Contains(t, err.Error(), "id_conflict")
}

func TestAddReportsCorruptFile(t *testing.T) {
	path := useFileStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{oops`), 0o644))

	_, err := run(t, "add", "--name", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestGetUnknownTea(t *testing.T) {
	useFileStore(t)

	_, err := run(t, "get", "Rooibos")
	assert.ErrorContains(t, err, `tea "Rooibos" not found`)
}

func TestListFormats(t *testing.T) {
	useFileStore(t)
	for _, name := range []string{"Sencha", "Assam"} {
		_, err := run(t, "add", "--name", name, "--description", name+" leaves")
		require.NoError(t, err)
	}

	out, err := run(t, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Sencha")
	assert.Contains(t, lines[2], "Assam")

	out, err = run(t, "list", "-o", "yaml")
	require.NoError(t, err)
	var teas []entities.Tea
	require.NoError(t, yaml.Unmarshal([]byte(out), &teas))
	assert.Equal(t, []entities.Tea{
		{ID: 1, Name: "Sencha", Description: "Sencha leaves"},
		{ID: 2, Name: "Assam", Description: "Assam leaves"},
	}, teas)

	_, err = run(t, "list", "-o", "xml")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	useFileStore(t)

	_, err := run(t, "token", "--subject", "ci-bot")
	assert.Error(t, err, "no secret configured")

	t.Setenv("JWT_SECRET", "test-secret")
	out, err := run(t, "token", "--subject", "ci-bot")
	require.NoError(t, err)

	auth := services.NewAuthService(config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour, Issuer: "teamaster-api"}, logger.NewNop())
	claims, err := auth.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ci-bot", claims.Subject)
}

func TestWatchNeedsFileBackend(t *testing.T) {
	useFileStore(t)
	t.Setenv("STORE_BACKEND", config.BackendMemory)

	_, err := run(t, "watch")
	assert.ErrorContains(t, err, "file backend")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "TeaMaster test\n", out)
}

// chdir changes the working directory for the duration of the test
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
