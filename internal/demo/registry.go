package demo

import (
	"github.com/samgonzalez27/buildplan"
	"github.com/samgonzalez27/buildplan/internal/core"
)

// NewChainRegistry builds the scenario-1 registry: Server depends on
// Database and Cache, both depending on a single shared Config node.
func NewChainRegistry() (*buildplan.Registry, error) {
	reg := buildplan.NewRegistry()
	if err := reg.Add(core.NewRecipeDescriptor("Config", func() core.Recipe { return &ConfigRecipe{} })); err != nil {
		return nil, err
	}
	if err := reg.Add(core.NewRecipeDescriptor("Database", func() core.Recipe { return &DatabaseRecipe{} })); err != nil {
		return nil, err
	}
	if err := reg.Add(core.NewRecipeDescriptor("Cache", func() core.Recipe { return &CacheRecipe{} })); err != nil {
		return nil, err
	}
	if err := reg.Add(core.NewRecipeDescriptor("Server", func() core.Recipe { return &ServerRecipe{} })); err != nil {
		return nil, err
	}
	return reg, nil
}

// NewSplitRegistry builds the scenario-4 registry: a second Config recipe
// is registered with a context path routing through Cache, forcing the
// planner to split Config into two nodes — one feeding Database, one
// feeding Cache — instead of sharing a single instance.
func NewSplitRegistry() (*buildplan.Registry, error) {
	reg := buildplan.NewRegistry()
	if err := reg.Add(core.NewRecipeDescriptor("Config", func() core.Recipe { return &ConfigRecipe{} })); err != nil {
		return nil, err
	}
	if err := reg.Add(
		core.NewRecipeDescriptor("Config_forCache", func() core.Recipe { return &ConfigForCacheRecipe{} }),
		buildplan.WithContext(core.AssetSpec(TypeCache)),
	); err != nil {
		return nil, err
	}
	if err := reg.Add(core.NewRecipeDescriptor("Database", func() core.Recipe { return &DatabaseRecipe{} })); err != nil {
		return nil, err
	}
	if err := reg.Add(core.NewRecipeDescriptor("Cache", func() core.Recipe { return &CacheRecipe{} })); err != nil {
		return nil, err
	}
	if err := reg.Add(core.NewRecipeDescriptor("Server", func() core.Recipe { return &ServerRecipe{} })); err != nil {
		return nil, err
	}
	return reg, nil
}
