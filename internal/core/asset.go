// Package core defines the value types shared by every layer of the planner:
// assets, contracts, dependencies, and the Recipe contract that registered
// build logic must satisfy.
package core

import (
	"context"
	"fmt"
)

// AssetType is a nominal identifier for a family of assets. Two AssetTypes
// are equal iff their names are equal; the zero value is invalid and never
// produced by NewAssetType.
type AssetType struct {
	name string
}

// NewAssetType creates an AssetType with the given name. The name must be
// non-empty; callers that need a closed set of types typically declare
// package-level AssetType values once, at init time.
func NewAssetType(name string) AssetType {
	if name == "" {
		panic("core: asset type name must not be empty")
	}
	return AssetType{name: name}
}

func (t AssetType) String() string { return t.name }

// IsZero reports whether t is the unset zero value.
func (t AssetType) IsZero() bool { return t.name == "" }

// Asset is the marker interface every value produced by a Recipe and
// consumed by others must implement. AssetType must be safe to call on the
// zero value of the concrete asset type: it identifies the *type*, not the
// built instance.
type Asset interface {
	AssetType() AssetType
}

// Contract is what a dependency asks for and what a recipe promises:
// an AssetType plus an optional Key. An absent key is represented by the
// empty string, matching spec's "short string or absent".
type Contract struct {
	Type AssetType
	Key  string
}

func (c Contract) String() string {
	if c.Key == "" {
		return c.Type.String()
	}
	return c.Type.String() + "#" + c.Key
}

// Dependency is one declared, named input of a Recipe.
type Dependency struct {
	Field    string
	Contract Contract
}

// MakeResult is what Recipe.Make returns: either a plain asset, or an asset
// paired with a teardown closure invoked exactly once at release time.
type MakeResult struct {
	asset  Asset
	onDrop func() error
}

// Plain wraps an asset that needs no teardown.
func Plain(a Asset) MakeResult { return MakeResult{asset: a} }

// Scoped wraps an asset together with a teardown closure, invoked exactly
// once when the executor releases the owning AssetRecord.
func Scoped(a Asset, onDrop func() error) MakeResult {
	return MakeResult{asset: a, onDrop: onDrop}
}

func (r MakeResult) Asset() Asset          { return r.asset }
func (r MakeResult) OnDrop() func() error { return r.onDrop }

// Recipe is a unit of build logic producing exactly one Asset from zero or
// more injected dependencies. Implementations declare their dependencies as
// tagged Ref[T] fields (see Ref) and are instantiated fresh per build by
// their RecipeDescriptor's factory; Make is called once the executor has
// populated every Ref.
type Recipe interface {
	Produces() AssetType
	Make(ctx context.Context) (MakeResult, error)
}

// dependencyRef is implemented only by Ref[T]; it lets the executor bind a
// built upstream asset onto a recipe's dependency field without knowing T.
type dependencyRef interface {
	AssetType() AssetType
	SetAsset(a Asset) error
}

// Ref is how a Recipe declares a single injected dependency. A Recipe field
// of type Ref[T] tagged `inject:"key"` (or `inject:""` for an absent key)
// is discovered by ParseDependencies and populated by the executor before
// Make is invoked.
type Ref[T Asset] struct {
	asset T
	bound bool
}

// AssetType reports the contract type this Ref expects, derived from T's
// zero value. T's AssetType method must not depend on instance state.
func (r Ref[T]) AssetType() AssetType {
	var zero T
	return zero.AssetType()
}

// SetAsset binds a built upstream asset onto this Ref. It fails if a is not
// assignable to T; this only happens if the planner wired a mismatched
// contract, which is an internal invariant violation rather than a spec'd
// user-facing error.
func (r *Ref[T]) SetAsset(a Asset) error {
	v, ok := a.(T)
	if !ok {
		return fmt.Errorf("core: cannot bind asset of type %T to dependency of contract %s", a, r.AssetType())
	}
	r.asset = v
	r.bound = true
	return nil
}

// Get returns the bound asset. It panics if called before the executor has
// populated the Ref, which indicates a planner/executor bug, not a user
// error.
func (r Ref[T]) Get() T {
	if !r.bound {
		panic("core: dependency accessed before it was bound")
	}
	return r.asset
}
