package workdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "root.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadRootConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, "root: /var/lib/buildplan\nproject: demo\n")

	cfg, err := LoadRootConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/buildplan", cfg.Root)
	require.Equal(t, "demo", cfg.Project)
}

func TestLoadRootConfig_ProjectOptional(t *testing.T) {
	path := writeConfig(t, "root: /var/lib/buildplan\n")

	cfg, err := LoadRootConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/buildplan", cfg.Root)
	require.Empty(t, cfg.Project)
}

func TestLoadRootConfig_MissingRootRejected(t *testing.T) {
	path := writeConfig(t, "project: demo\n")

	_, err := LoadRootConfig(path)
	require.Error(t, err)
}

func TestLoadRootConfig_MalformedYAMLRejected(t *testing.T) {
	path := writeConfig(t, "root: [unterminated\n")

	_, err := LoadRootConfig(path)
	require.Error(t, err)
}

func TestLoadRootConfig_MissingFileRejected(t *testing.T) {
	_, err := LoadRootConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
