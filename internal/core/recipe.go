package core

import (
	"context"
	"reflect"
)

// RecipeFactory produces a fresh Recipe value ready to have its
// dependencies bound. The executor calls it once per graph node per run;
// recipes are never reused across builds.
type RecipeFactory func() Recipe

// RecipeDescriptor is what gets registered with a Planner registry: a
// named factory for a Recipe. The produced AssetType and the dependencies
// are not stored; Produces and Dependencies derive them from a fresh
// factory instance on every call.
type RecipeDescriptor struct {
	Name    string
	Factory RecipeFactory
}

// NewRecipeDescriptor builds a RecipeDescriptor, deriving Name from the
// concrete type the factory produces unless name is explicitly given.
func NewRecipeDescriptor(name string, factory RecipeFactory) RecipeDescriptor {
	if name == "" {
		name = reflect.TypeOf(factory()).String()
	}
	return RecipeDescriptor{Name: name, Factory: factory}
}

// Produces reports the AssetType this descriptor's recipe builds, by
// instantiating one throwaway instance.
func (d RecipeDescriptor) Produces() AssetType {
	return d.Factory().Produces()
}

// Dependencies returns the ordered dependency list parsed from the
// factory's concrete recipe type.
func (d RecipeDescriptor) Dependencies() ([]Dependency, error) {
	return ParseDependencies(reflect.TypeOf(d.Factory()))
}

// BundleEntry pairs a RecipeDescriptor with an optional key override used
// when the bundle itself is registered under a specific key.
type BundleEntry struct {
	Recipe RecipeDescriptor
	Key    string
}

// RecipeBundle is a set of recipes registered together, each individually,
// under the same context. An outer key supplied at AddBundle time
// overrides any entry whose own Key is absent.
type RecipeBundle []BundleEntry

// Capabilities is a pure-data bag a recipe's Make implementation may
// consult for environment-provided capabilities (clocks, secrets
// handles, feature flags) without the planner knowing or caring about
// them. Unlike the bound-asset façade this deliberately replaces,
// Capabilities never intercepts method calls: callers fetch what they
// need explicitly.
type Capabilities struct {
	values map[reflect.Type]any
}

// NewCapabilities returns an empty capability bag.
func NewCapabilities() *Capabilities {
	return &Capabilities{values: make(map[reflect.Type]any)}
}

// WithCapability returns a copy of c with v registered under its own
// type, for chainable construction at plan-run time.
func (c *Capabilities) WithCapability(v any) *Capabilities {
	out := &Capabilities{values: make(map[reflect.Type]any, len(c.values)+1)}
	for k, val := range c.values {
		out.values[k] = val
	}
	out.values[reflect.TypeOf(v)] = v
	return out
}

// Capability fetches a previously registered capability value by its
// static type, reporting whether one was present.
func Capability[T any](c *Capabilities) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	v, ok := c.values[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// capsKey is the unexported context key used to thread Capabilities
// through a build without widening the Recipe.Make signature.
type capsKey struct{}

// WithCapabilities attaches caps to ctx for retrieval inside Make via
// CapabilitiesFrom.
func WithCapabilities(ctx context.Context, caps *Capabilities) context.Context {
	return context.WithValue(ctx, capsKey{}, caps)
}

// CapabilitiesFrom retrieves the Capabilities attached to ctx, if any.
func CapabilitiesFrom(ctx context.Context) *Capabilities {
	caps, _ := ctx.Value(capsKey{}).(*Capabilities)
	return caps
}
