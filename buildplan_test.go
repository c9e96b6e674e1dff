package buildplan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samgonzalez27/buildplan/internal/core"
)

var errFailingMake = errors.New("make failed")

var (
	typeA = core.NewAssetType("A")
	typeB = core.NewAssetType("B")
)

type assetA struct{ order *[]string }

func (assetA) AssetType() core.AssetType { return typeA }

type recipeA struct {
	B     core.Ref[assetB] `inject:""`
	order *[]string
}

func (recipeA) Produces() core.AssetType { return typeA }
func (r *recipeA) Make(context.Context) (core.MakeResult, error) {
	return core.Scoped(assetA{order: r.order}, func() error {
		*r.order = append(*r.order, "release:RA")
		return nil
	}), nil
}

type assetB struct{ order *[]string }

func (assetB) AssetType() core.AssetType { return typeB }

type recipeB struct {
	order *[]string
}

func (recipeB) Produces() core.AssetType { return typeB }
func (r *recipeB) Make(context.Context) (core.MakeResult, error) {
	return core.Scoped(assetB{order: r.order}, func() error {
		*r.order = append(*r.order, "release:RB")
		return nil
	}), nil
}

// Scenario 1: single chain. RA produces A (deps: B), RB produces B.
func TestPlan_SingleChain(t *testing.T) {
	var order []string
	reg := NewRegistry()
	require.NoError(t, reg.Add(core.NewRecipeDescriptor("RA", func() core.Recipe { return &recipeA{order: &order} })))
	require.NoError(t, reg.Add(core.NewRecipeDescriptor("RB", func() core.Recipe { return &recipeB{order: &order} })))

	plan, err := reg.Plan(typeA, "")
	require.NoError(t, err)
	require.Equal(t, 2, plan.Nodes())

	asset, release, err := plan.Run(context.Background())
	require.NoError(t, err)
	require.IsType(t, assetA{}, asset)

	require.NoError(t, release())
	require.Equal(t, []string{"release:RB", "release:RA"}, order)
}

// Scenario 2: context selection. Two recipes for B, one preferred when the
// path runs through A.
type assetBDefault struct{}

func (assetBDefault) AssetType() core.AssetType { return typeB }

type recipeBDefault struct{}

func (recipeBDefault) Produces() core.AssetType { return typeB }
func (recipeBDefault) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetBDefault{}), nil
}

type assetBForA struct{}

func (assetBForA) AssetType() core.AssetType { return typeB }

type recipeBForA struct{}

func (recipeBForA) Produces() core.AssetType { return typeB }
func (recipeBForA) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetB{}), nil
}

func TestPlan_ContextSelectionPrefersMoreSpecificRecipe(t *testing.T) {
	var order []string
	reg := NewRegistry()
	require.NoError(t, reg.Add(core.NewRecipeDescriptor("RA", func() core.Recipe { return &recipeA{order: &order} })))
	require.NoError(t, reg.Add(core.NewRecipeDescriptor("RB_default", func() core.Recipe { return &recipeBDefault{} })))
	require.NoError(t, reg.Add(
		core.NewRecipeDescriptor("RB_forA", func() core.Recipe { return &recipeBForA{} }),
		WithContext(core.AssetSpec(typeA)),
	))

	plan, err := reg.Plan(typeA, "")
	require.NoError(t, err)

	var names []string
	for _, n := range plan.graph.Nodes() {
		names = append(names, n.Recipe.Name)
	}
	require.Contains(t, names, "RB_forA")
	require.NotContains(t, names, "RB_default")

	asset, release, err := plan.Run(context.Background())
	require.NoError(t, err)
	defer release()
	require.IsType(t, assetA{}, asset)
}

// Scenario 5: ambiguous target. Two recipes both registered for A with the
// default (empty) context.
func TestPlan_AmbiguousTargetFails(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Add(core.NewRecipeDescriptor("RA1", func() core.Recipe { return &recipeA{order: new([]string)} })))
	require.NoError(t, reg.Add(core.NewRecipeDescriptor("RA2", func() core.Recipe { return &recipeA{order: new([]string)} })))

	_, err := reg.Plan(typeA, "")
	require.Error(t, err)
	var ambiguous *core.AmbiguousTargetError
	require.ErrorAs(t, err, &ambiguous)
	require.Equal(t, 2, ambiguous.Count)
}

func TestPlan_MissingTargetFails(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Plan(typeA, "")
	require.Error(t, err)
	var ambiguous *core.AmbiguousTargetError
	require.ErrorAs(t, err, &ambiguous)
	require.Equal(t, 0, ambiguous.Count)
}

// Scenario 6: cleanup on failure. RA's Make fails after RB was built; RB's
// release runs exactly once.
type recipeAFailing struct {
	B core.Ref[assetB] `inject:""`
}

func (recipeAFailing) Produces() core.AssetType { return typeA }
func (recipeAFailing) Make(context.Context) (core.MakeResult, error) {
	return core.MakeResult{}, errFailingMake
}

func TestPlan_BuildFailureReleasesAlreadyBuiltAssetsExactlyOnce(t *testing.T) {
	var order []string
	reg := NewRegistry()
	require.NoError(t, reg.Add(core.NewRecipeDescriptor("RA", func() core.Recipe { return &recipeAFailing{} })))
	require.NoError(t, reg.Add(core.NewRecipeDescriptor("RB", func() core.Recipe { return &recipeB{order: &order} })))

	plan, err := reg.Plan(typeA, "")
	require.NoError(t, err)

	_, _, err = plan.Run(context.Background())
	require.Error(t, err)
	var buildErr *core.BuildFailedError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, []string{"release:RB"}, order)
}

func TestRegistry_AddRejectsOverlongKey(t *testing.T) {
	reg := NewRegistry()
	longKey := make([]byte, 65)
	for i := range longKey {
		longKey[i] = 'x'
	}
	err := reg.Add(core.NewRecipeDescriptor("RB", func() core.Recipe { return &recipeB{order: new([]string)} }), WithKey(string(longKey)))
	require.Error(t, err)
}
