// Package workdir resolves the on-disk directory a recipe's persistent
// working directory name maps to, guarding against paths that escape the
// configured root. It is deliberately not a storage provider: it neither
// garbage-collects nor derives cache tags, matching the scope boundary the
// core planner draws around the external storage component.
package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrWorkdirRequired is returned when a recipe asks for a persistent
// directory but the plan carries no root configuration.
var ErrWorkdirRequired = errors.New("workdir: persistent directory requested but no root configured")

// ErrProjectRequired is returned when a recipe asks for a project-scoped
// (non-shared) persistent directory but the plan carries no project name.
var ErrProjectRequired = errors.New("workdir: project-specific directory requested but no project configured")

// ErrEscapesRoot is returned when the resolved directory would fall
// outside root.
var ErrEscapesRoot = errors.New("workdir: resolved path escapes root")

// RootConfig is the opaque root configuration a Plan may carry. The
// executor treats it opaquely except to pass it through Resolve.
type RootConfig struct {
	Root    string
	Project string
}

// HasRoot reports whether a root directory was configured.
func (r RootConfig) HasRoot() bool { return r.Root != "" }

// Resolve computes the on-disk directory for a recipe-declared persistent
// directory name dir. When shared is true the directory lives under
// "<root>/shared/<dir>"; otherwise under "<root>/projects/<project>/<dir>".
// The directory is created (with parents) if missing. Resolve fails with
// ErrWorkdirRequired, ErrProjectRequired, or ErrEscapesRoot before ever
// touching the filesystem.
func Resolve(root RootConfig, dir string, shared bool) (string, error) {
	if !root.HasRoot() {
		return "", ErrWorkdirRequired
	}
	rootAbs, err := filepath.Abs(root.Root)
	if err != nil {
		return "", fmt.Errorf("workdir: resolve root: %w", err)
	}

	var path string
	if shared {
		path = filepath.Join(rootAbs, "shared", dir)
	} else {
		if root.Project == "" {
			return "", ErrProjectRequired
		}
		path = filepath.Join(rootAbs, "projects", root.Project, dir)
	}

	if !isWithin(rootAbs, path) {
		return "", fmt.Errorf("%w: %s", ErrEscapesRoot, path)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("workdir: create %s: %w", path, err)
	}
	return path, nil
}

// isWithin reports whether path is root or a descendant of root.
func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.' &&
		(len(rel) == 2 || os.IsPathSeparator(rel[2]))
}
