package workdir

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_SharedDirectoryUnderRoot(t *testing.T) {
	root := RootConfig{Root: t.TempDir()}

	path, err := Resolve(root, "cache", true)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root.Root, "shared", "cache"), path)
	require.DirExists(t, path)
}

func TestResolve_ProjectScopedDirectoryUnderRoot(t *testing.T) {
	root := RootConfig{Root: t.TempDir(), Project: "demo"}

	path, err := Resolve(root, "data", false)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root.Root, "projects", "demo", "data"), path)
	require.DirExists(t, path)
}

func TestResolve_MissingRootRejected(t *testing.T) {
	_, err := Resolve(RootConfig{}, "cache", true)
	require.ErrorIs(t, err, ErrWorkdirRequired)
}

func TestResolve_MissingProjectRejectedForNonShared(t *testing.T) {
	root := RootConfig{Root: t.TempDir()}

	_, err := Resolve(root, "data", false)
	require.ErrorIs(t, err, ErrProjectRequired)
}

func TestResolve_EscapingDirNameRejected(t *testing.T) {
	root := RootConfig{Root: t.TempDir()}

	_, err := Resolve(root, "../../etc", true)
	require.ErrorIs(t, err, ErrEscapesRoot)
}

func TestResolve_EscapingProjectNameRejected(t *testing.T) {
	root := RootConfig{Root: t.TempDir(), Project: "../../etc"}

	_, err := Resolve(root, "data", false)
	require.ErrorIs(t, err, ErrEscapesRoot)
}
