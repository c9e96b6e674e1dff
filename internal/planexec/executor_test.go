package planexec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samgonzalez27/buildplan/internal/core"
	"github.com/samgonzalez27/buildplan/internal/fitness"
	"github.com/samgonzalez27/buildplan/internal/planalgorithm"
)

var (
	typeLeaf = core.NewAssetType("Leaf")
	typeMid  = core.NewAssetType("Mid")
	typeTop  = core.NewAssetType("Top")
)

type assetLeaf struct{ order *[]string }

func (assetLeaf) AssetType() core.AssetType { return typeLeaf }

type recipeLeaf struct {
	order *[]string
}

func (recipeLeaf) Produces() core.AssetType { return typeLeaf }
func (r *recipeLeaf) Make(context.Context) (core.MakeResult, error) {
	*r.order = append(*r.order, "build:leaf")
	return core.Scoped(assetLeaf{order: r.order}, func() error {
		*r.order = append(*r.order, "release:leaf")
		return nil
	}), nil
}

type assetMid struct{}

func (assetMid) AssetType() core.AssetType { return typeMid }

type recipeMid struct {
	Leaf  core.Ref[assetLeaf] `inject:""`
	order *[]string
}

func (recipeMid) Produces() core.AssetType { return typeMid }
func (r *recipeMid) Make(context.Context) (core.MakeResult, error) {
	*r.order = append(*r.order, "build:mid")
	return core.Scoped(assetMid{}, func() error {
		*r.order = append(*r.order, "release:mid")
		return nil
	}), nil
}

type assetTop struct{}

func (assetTop) AssetType() core.AssetType { return typeTop }

type recipeTop struct {
	Mid   core.Ref[assetMid] `inject:""`
	order *[]string
}

func (recipeTop) Produces() core.AssetType { return typeTop }
func (r *recipeTop) Make(context.Context) (core.MakeResult, error) {
	*r.order = append(*r.order, "build:top")
	return core.Plain(assetTop{}), nil
}

// buildChain constructs the Leaf -> Mid -> Top planned graph, sharing the
// order slice across every recipe instance via closures over the factories.
func buildChain(t *testing.T, order *[]string) (*planalgorithm.Graph, *planalgorithm.GraphNode) {
	t.Helper()

	target := &planalgorithm.RecipeHandle{
		Desc:     core.NewRecipeDescriptor("Top", func() core.Recipe { return &recipeTop{order: order} }),
		Contexts: []core.ContextPath{{}},
	}
	mid := &planalgorithm.RecipeHandle{
		Desc:     core.NewRecipeDescriptor("Mid", func() core.Recipe { return &recipeMid{order: order} }),
		Contexts: []core.ContextPath{{}},
	}
	leaf := &planalgorithm.RecipeHandle{
		Desc:     core.NewRecipeDescriptor("Leaf", func() core.Recipe { return &recipeLeaf{order: order} }),
		Contexts: []core.ContextPath{{}},
	}

	contractToRecipes := map[core.Contract][]*planalgorithm.RecipeHandle{
		{Type: typeMid}:  {mid},
		{Type: typeLeaf}: {leaf},
	}

	g, sink, _, err := planalgorithm.Run(target, contractToRecipes, fitness.DefaultOptions())
	require.NoError(t, err)
	return g, sink
}

func TestExecutor_BuildsInTopologicalOrder(t *testing.T) {
	var order []string
	g, sink := buildChain(t, &order)

	exec := New(g, sink, Options{})
	asset, release, err := exec.Run(context.Background())
	require.NoError(t, err)
	require.IsType(t, assetTop{}, asset)
	require.Equal(t, []string{"build:leaf", "build:mid", "build:top"}, order)

	require.NoError(t, release())
}

func TestExecutor_DeferredCleanupReleasesInReverseBuildOrder(t *testing.T) {
	var order []string
	g, sink := buildChain(t, &order)

	exec := New(g, sink, Options{})
	_, release, err := exec.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, release())
	require.Equal(t, []string{
		"build:leaf", "build:mid", "build:top",
		"release:mid", "release:leaf",
	}, order)
}

func TestExecutor_EagerCleanupReleasesNonTargetAssetsAsSoonAsUnused(t *testing.T) {
	var order []string
	g, sink := buildChain(t, &order)

	exec := New(g, sink, Options{EagerCleanup: true})
	_, release, err := exec.Run(context.Background())
	require.NoError(t, err)

	// Leaf has no remaining consumers once Mid is built, and Mid none once
	// Top is built; eager cleanup is on, so both releases happen inline
	// during the build pass rather than being deferred to release().
	require.Equal(t, []string{"build:leaf", "build:mid", "release:leaf", "build:top", "release:mid"}, order)

	require.NoError(t, release())
	require.Equal(t, []string{"build:leaf", "build:mid", "release:leaf", "build:top", "release:mid"}, order)
}

type recipeMidFailing struct {
	Leaf core.Ref[assetLeaf] `inject:""`
}

func (recipeMidFailing) Produces() core.AssetType { return typeMid }
func (recipeMidFailing) Make(context.Context) (core.MakeResult, error) {
	return core.MakeResult{}, errors.New("boom")
}

func TestExecutor_BuildFailureReleasesAlreadyBuiltAssets(t *testing.T) {
	var order []string

	target := &planalgorithm.RecipeHandle{
		Desc:     core.NewRecipeDescriptor("Top", func() core.Recipe { return &recipeTop{order: &order} }),
		Contexts: []core.ContextPath{{}},
	}
	mid := &planalgorithm.RecipeHandle{
		Desc:     core.NewRecipeDescriptor("Mid", func() core.Recipe { return &recipeMidFailing{} }),
		Contexts: []core.ContextPath{{}},
	}
	leaf := &planalgorithm.RecipeHandle{
		Desc:     core.NewRecipeDescriptor("Leaf", func() core.Recipe { return &recipeLeaf{order: &order} }),
		Contexts: []core.ContextPath{{}},
	}
	contractToRecipes := map[core.Contract][]*planalgorithm.RecipeHandle{
		{Type: typeMid}:  {mid},
		{Type: typeLeaf}: {leaf},
	}

	g, sink, _, err := planalgorithm.Run(target, contractToRecipes, fitness.DefaultOptions())
	require.NoError(t, err)

	exec := New(g, sink, Options{})
	_, _, err = exec.Run(context.Background())
	require.Error(t, err)
	var buildErr *core.BuildFailedError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, "Mid", buildErr.Recipe)

	require.Equal(t, []string{"build:leaf", "release:leaf"}, order)
}

func TestExecutor_RunFuncReleasesOnSuccessAndOnCallbackError(t *testing.T) {
	var order []string
	g, sink := buildChain(t, &order)

	exec := New(g, sink, Options{})
	callbackErr := errors.New("callback failed")
	err := exec.RunFunc(context.Background(), func(core.Asset) error {
		return callbackErr
	})
	require.ErrorIs(t, err, callbackErr)
	require.Contains(t, order, "release:leaf")
	require.Contains(t, order, "release:mid")
}
