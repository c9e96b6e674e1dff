package planalgorithm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samgonzalez27/buildplan/internal/core"
	"github.com/samgonzalez27/buildplan/internal/fitness"
)

var (
	typeA = core.NewAssetType("A")
	typeB = core.NewAssetType("B")
	typeD = core.NewAssetType("D")
	typeT = core.NewAssetType("T")
)

type assetA struct{}

func (assetA) AssetType() core.AssetType { return typeA }

type assetB struct{}

func (assetB) AssetType() core.AssetType { return typeB }

type assetD struct{}

func (assetD) AssetType() core.AssetType { return typeD }

type assetT struct{}

func (assetT) AssetType() core.AssetType { return typeT }

// recipeA depends on B.
type recipeA struct {
	B core.Ref[assetB] `inject:""`
}

func (recipeA) Produces() core.AssetType { return typeA }
func (recipeA) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetA{}), nil
}

// recipeB has no dependencies.
type recipeB struct{}

func (recipeB) Produces() core.AssetType { return typeB }
func (recipeB) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetB{}), nil
}

func handle(name string, factory core.RecipeFactory, contexts ...core.ContextPath) *RecipeHandle {
	return &RecipeHandle{Desc: core.NewRecipeDescriptor(name, factory), Contexts: contexts}
}

func TestRun_SingleChain(t *testing.T) {
	target := handle("RA", func() core.Recipe { return &recipeA{} }, core.ContextPath{})
	rb := handle("RB", func() core.Recipe { return &recipeB{} }, core.ContextPath{})

	contractToRecipes := map[core.Contract][]*RecipeHandle{
		{Type: typeB}: {rb},
	}

	g, sink, _, err := Run(target, contractToRecipes, fitness.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 2, len(g.Nodes()))
	require.Equal(t, 0, g.OutDegree(sink))

	ins := g.InEdges(sink)
	require.Len(t, ins, 1)
	require.Equal(t, typeB, ins[0].Contract.Type)
	require.Equal(t, "RB", ins[0].From.Recipe.Name)
}

// recipeAWithTwoDeps depends on both B and D, used for the reuse scenario.
type recipeAWithTwoDeps struct {
	B core.Ref[assetB] `inject:""`
	D core.Ref[assetD] `inject:""`
}

func (recipeAWithTwoDeps) Produces() core.AssetType { return typeA }
func (recipeAWithTwoDeps) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetA{}), nil
}

type recipeBDepD struct {
	D core.Ref[assetD] `inject:""`
}

func (recipeBDepD) Produces() core.AssetType { return typeB }
func (recipeBDepD) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetB{}), nil
}

type recipeD struct{}

func (recipeD) Produces() core.AssetType { return typeD }
func (recipeD) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetD{}), nil
}

func TestRun_ReuseSharedDependencyAcrossDiamond(t *testing.T) {
	target := handle("RA", func() core.Recipe { return &recipeAWithTwoDeps{} }, core.ContextPath{})
	rb := handle("RB", func() core.Recipe { return &recipeBDepD{} }, core.ContextPath{})
	rd := handle("RD", func() core.Recipe { return &recipeD{} }, core.ContextPath{})

	contractToRecipes := map[core.Contract][]*RecipeHandle{
		{Type: typeB}: {rb},
		{Type: typeD}: {rd},
	}

	g, sink, _, err := Run(target, contractToRecipes, fitness.DefaultOptions())
	require.NoError(t, err)

	var dNodes []*GraphNode
	for _, n := range g.Nodes() {
		if n.Recipe.Name == "RD" {
			dNodes = append(dNodes, n)
		}
	}
	require.Len(t, dNodes, 1, "B and the target both depending on D should share one D node")
	require.Equal(t, 2, g.OutDegree(dNodes[0]))
	require.Equal(t, 0, g.OutDegree(sink))
}

func TestRun_MissingRecipeFails(t *testing.T) {
	target := handle("RA", func() core.Recipe { return &recipeA{} }, core.ContextPath{})
	_, _, _, err := Run(target, map[core.Contract][]*RecipeHandle{}, fitness.DefaultOptions())
	require.Error(t, err)
	var missing *core.MissingRecipeError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, typeB, missing.Contract.Type)
}

// recipeDForA is preferred for D only when the planning path runs through A.
type recipeDForA struct{}

func (recipeDForA) Produces() core.AssetType { return typeD }
func (recipeDForA) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetD{}), nil
}

var typeC = core.NewAssetType("C")

type assetC struct{}

func (assetC) AssetType() core.AssetType { return typeC }

// recipeT depends on both A and C.
type recipeT struct {
	A core.Ref[assetA] `inject:""`
	C core.Ref[assetC] `inject:""`
}

func (recipeT) Produces() core.AssetType { return typeT }
func (recipeT) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetT{}), nil
}

// recipeADepD and recipeCDepD each depend solely on D.
type recipeADepD struct {
	D core.Ref[assetD] `inject:""`
}

func (recipeADepD) Produces() core.AssetType { return typeA }
func (recipeADepD) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetA{}), nil
}

type recipeCDepD struct {
	D core.Ref[assetD] `inject:""`
}

func (recipeCDepD) Produces() core.AssetType { return typeC }
func (recipeCDepD) Make(context.Context) (core.MakeResult, error) {
	return core.Plain(assetC{}), nil
}

func TestRun_SplitIsolatesBetterFitOnMatchingPathOnly(t *testing.T) {
	target := handle("RT", func() core.Recipe { return &recipeT{} }, core.ContextPath{})
	ra := handle("RA", func() core.Recipe { return &recipeADepD{} }, core.ContextPath{})
	rc := handle("RC", func() core.Recipe { return &recipeCDepD{} }, core.ContextPath{})
	rd := handle("RD", func() core.Recipe { return &recipeD{} }, core.ContextPath{})
	rdForA := handle("RD_forA", func() core.Recipe { return &recipeDForA{} }, core.ContextPath{{Type: typeA}})

	contractToRecipes := map[core.Contract][]*RecipeHandle{
		{Type: typeA}: {ra},
		{Type: typeC}: {rc},
		{Type: typeD}: {rd, rdForA},
	}

	g, sink, _, err := Run(target, contractToRecipes, fitness.DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, 0, g.OutDegree(sink))

	var dNodes []*GraphNode
	for _, n := range g.Nodes() {
		if n.Recipe.Produces() == typeD {
			dNodes = append(dNodes, n)
		}
	}
	require.Len(t, dNodes, 2, "A's and C's D dependency should be split into two distinct D nodes")
}
