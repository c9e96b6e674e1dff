// Package buildplan is a context-aware dependency-injection build planner:
// it maps abstract contracts (an asset type plus an optional key) to
// candidate recipes, compiles a target contract into a concrete build
// graph biased by where each recipe is registered to be preferred, and
// drives that graph to completion with deterministic ordering and cleanup.
package buildplan

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/samgonzalez27/buildplan/internal/core"
	"github.com/samgonzalez27/buildplan/internal/metrics"
	"github.com/samgonzalez27/buildplan/internal/planalgorithm"
)

// Registry holds every recipe registration: for each contract, the set of
// candidate recipes (with their preferred context paths) able to satisfy
// it. Registrations are append-only; a Registry is reused across any
// number of Plan calls.
type Registry struct {
	contractToRecipes map[core.Contract][]*planalgorithm.RecipeHandle
	handlesByName     map[string]*planalgorithm.RecipeHandle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		contractToRecipes: make(map[core.Contract][]*planalgorithm.RecipeHandle),
		handlesByName:     make(map[string]*planalgorithm.RecipeHandle),
	}
}

// Add registers recipe under the contract (recipe.Produces(), key), with
// one or more ContextPaths derived from the context spec passed via
// WithContext. The default context is the single empty path. Two calls
// registering a recipe under the same Name accumulate onto the same
// handle's context-path set, so a recipe can be registered multiple times
// under different preferred contexts.
func (r *Registry) Add(recipe core.RecipeDescriptor, opts ...AddOption) error {
	cfg, err := newAddConfig(opts)
	if err != nil {
		return err
	}
	return r.addWithConfig(recipe, cfg)
}

func (r *Registry) addWithConfig(recipe core.RecipeDescriptor, cfg addConfig) error {
	contexts, err := resolveContexts(cfg.Context)
	if err != nil {
		return err
	}

	contract := core.Contract{Type: recipe.Produces(), Key: cfg.Key}

	// A handle is keyed by (Name, Key), not Name alone: the same recipe
	// registered under two different keys produces two distinct contracts,
	// each with its own independent set of preferred context paths.
	handleKey := recipe.Name + "\x00" + cfg.Key
	handle := r.handlesByName[handleKey]
	if handle == nil {
		handle = &planalgorithm.RecipeHandle{Desc: recipe}
		r.handlesByName[handleKey] = handle
		r.contractToRecipes[contract] = append(r.contractToRecipes[contract], handle)
	}
	handle.Contexts = append(handle.Contexts, contexts...)
	return nil
}

// AddBundle registers every entry of bundle individually, sharing the
// bundle-level context derived from opts. An entry whose own Key is absent
// takes the bundle-level key (via WithKey in opts); an explicit entry Key
// always wins.
func (r *Registry) AddBundle(bundle core.RecipeBundle, opts ...AddOption) error {
	cfg, err := newAddConfig(opts)
	if err != nil {
		return err
	}
	for _, entry := range bundle {
		entryCfg := cfg
		if entry.Key != "" {
			entryCfg.Key = entry.Key
		}
		if err := validate.Struct(&entryCfg); err != nil {
			return err
		}
		if err := r.addWithConfig(entry.Recipe, entryCfg); err != nil {
			return err
		}
	}
	return nil
}

func resolveContexts(spec core.Seq) ([]core.ContextPath, error) {
	if len(spec) == 0 {
		return []core.ContextPath{{}}, nil
	}
	return core.ExpandContexts(spec)
}

// Plan compiles the registry into a concrete build graph for the contract
// (asset, key), selecting the unique recipe registered for that contract
// with the empty context path as the target. Fails with AmbiguousTarget if
// zero or more than one recipe claims it, or with any planning-time error
// (MissingRecipe, AmbiguousRecipe, Cycle, NoIsolatingEdge, DoubleContract).
func (r *Registry) Plan(asset core.AssetType, key string, opts ...PlanOption) (*Plan, error) {
	cfg := newPlanConfig(opts)
	contract := core.Contract{Type: asset, Key: key}

	target, err := r.resolveTarget(contract)
	if err != nil {
		metrics.PlanFailures.WithLabelValues("ambiguous_target").Inc()
		return nil, err
	}

	graph, sink, stats, err := planalgorithm.Run(target, r.contractToRecipes, cfg.FitnessOpts)
	if err != nil {
		metrics.PlanFailures.WithLabelValues(planFailureKind(err)).Inc()
		return nil, err
	}

	// The compiled graph must be acyclic, with the target as its only sink.
	if len(graph.TopoOrder()) != len(graph.Nodes()) {
		metrics.PlanFailures.WithLabelValues("invalid_graph").Inc()
		return nil, fmt.Errorf("buildplan: planned graph for %s is not acyclic", contract)
	}
	for _, n := range graph.Nodes() {
		if (n == sink) != (graph.OutDegree(n) == 0) {
			metrics.PlanFailures.WithLabelValues("invalid_graph").Inc()
			return nil, fmt.Errorf("buildplan: planned graph for %s does not have the target as its unique sink", contract)
		}
	}

	metrics.PlansBuilt.Inc()
	metrics.Splits.Add(float64(stats.Splits))

	return &Plan{id: uuid.NewString(), graph: graph, sink: sink}, nil
}

func (r *Registry) resolveTarget(contract core.Contract) (*planalgorithm.RecipeHandle, error) {
	var candidates []*planalgorithm.RecipeHandle
	for _, h := range r.contractToRecipes[contract] {
		for _, ctx := range h.Contexts {
			if len(ctx) == 0 {
				candidates = append(candidates, h)
				break
			}
		}
	}
	if len(candidates) != 1 {
		return nil, &core.AmbiguousTargetError{Contract: contract, Count: len(candidates)}
	}
	return candidates[0], nil
}

func planFailureKind(err error) string {
	switch err.(type) {
	case *core.MissingRecipeError:
		return "missing_recipe"
	case *core.AmbiguousRecipeError:
		return "ambiguous_recipe"
	case *core.CycleError:
		return "cycle"
	case *core.NoIsolatingEdgeError:
		return "no_isolating_edge"
	case *core.DoubleContractError:
		return "double_contract"
	default:
		return "unknown"
	}
}
