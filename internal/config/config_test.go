package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/prompt-mesh/internal/config"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "promptmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// isolate keeps the developer's own config file out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 100, cfg.LogMaxSizeMB)
	assert.True(t, cfg.Watch)
	assert.Equal(t, 10, cfg.MaxInclusionDepth)
	assert.Equal(t, 64, cfg.SessionQueueSize)
	assert.Empty(t, cfg.Directories)
	assert.False(t, cfg.MultiProcess())
	assert.Empty(t, cfg.File)
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
port: 9090
log_level: debug
database_url: postgres://localhost/prompts
watch: false
directories:
  - path: /srv/prompts/general
  - path: /srv/team/prompts
    name: team
  - path: /srv/archive
    enabled: false
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.Watch)
	assert.True(t, cfg.MultiProcess())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	assert.Equal(t, []domainprompt.Directory{
		{Path: "/srv/prompts/general", Name: "general", Enabled: true},
		{Path: "/srv/team/prompts", Name: "team", Enabled: true},
		{Path: "/srv/archive", Name: "archive", Enabled: false},
	}, cfg.Directories)
	assert.Len(t, cfg.EnabledDirectories(), 2)
}

func TestLoad_DiscoversFileInWorkingDirectory(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("promptmesh.yaml", []byte("port: 7000\n"), 0o644))

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "port: 9090\nmax_inclusion_depth: 3\n")
	t.Setenv("PROMPTMESH_PORT", "9191")
	t.Setenv("PROMPTMESH_LOG_LEVEL", "warn")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 3, cfg.MaxInclusionDepth)
}

func TestLoad_DirectoriesFromEnvPathList(t *testing.T) {
	isolate(t)
	list := strings.Join([]string{"/a/general", " ", "/b/prompts"}, string(os.PathListSeparator))
	t.Setenv("PROMPTMESH_DIRECTORIES", list)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, []domainprompt.Directory{
		{Path: "/a/general", Name: "general", Enabled: true},
		{Path: "/b/prompts", Name: "prompts", Enabled: true},
	}, cfg.Directories)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"port", "port: 70000\n", "port 70000 out of range"},
		{"log level", "log_level: loud\n", "log_level"},
		{"depth", "max_inclusion_depth: 0\n", "max_inclusion_depth"},
		{"queue", "session_queue_size: -1\n", "session_queue_size"},
		{"empty directory", "directories:\n  - name: nothing\n", "directories[0]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			_, err := config.Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
