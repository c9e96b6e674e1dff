package workdir

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// fileConfig is the on-disk shape of a root policy file: which directory
// to root persistent workdirs under, and which project name to scope
// non-shared directories to.
type fileConfig struct {
	Root    string `yaml:"root" validate:"required"`
	Project string `yaml:"project"`
}

// LoadRootConfig reads a YAML root policy file from path and returns the
// RootConfig it describes. It is the only place this package touches
// YAML; Resolve itself stays config-format agnostic and takes a plain
// RootConfig value.
func LoadRootConfig(path string) (RootConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RootConfig{}, fmt.Errorf("workdir: read root config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return RootConfig{}, fmt.Errorf("workdir: parse root config %s: %w", path, err)
	}
	if err := validate.Struct(&fc); err != nil {
		return RootConfig{}, fmt.Errorf("workdir: invalid root config %s: %w", path, err)
	}

	return RootConfig{Root: fc.Root, Project: fc.Project}, nil
}
