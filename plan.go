package buildplan

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/samgonzalez27/buildplan/internal/core"
	"github.com/samgonzalez27/buildplan/internal/planalgorithm"
	"github.com/samgonzalez27/buildplan/internal/planexec"
)

// Plan is a compiled build graph for one target contract: a unique sink
// node (the target) plus every transitive dependency needed to build it,
// already resolved to concrete recipe instances and deduplicated/split per
// context. A Plan is immutable once returned by Registry.Plan and may be
// Run any number of times; each Run builds a fresh set of assets.
type Plan struct {
	id    string
	graph *planalgorithm.Graph
	sink  *planalgorithm.GraphNode
}

// Nodes returns the number of distinct recipe instances this plan builds,
// for diagnostics (e.g. the demo CLI's `plan` subcommand).
func (p *Plan) Nodes() int { return len(p.graph.Nodes()) }

// Run executes the plan once: builds every node in topological order and
// returns the target asset together with a release function that tears
// down every surviving record in reverse build order. The release
// function is idempotent; call it exactly once to avoid holding resources
// open indefinitely.
func (p *Plan) Run(ctx context.Context, opts ...RunOption) (core.Asset, func() error, error) {
	cfg := newRunConfig(opts)
	log.Debug("plan run starting", "plan", p.id, "nodes", p.Nodes())

	exec := planexec.New(p.graph, p.sink, planexec.Options{
		Root:         cfg.Root,
		EagerCleanup: cfg.EagerCleanup,
		Hooks:        cfg.Hooks,
		Capabilities: cfg.Capabilities,
	})
	return exec.Run(ctx)
}

// RunFunc runs the plan, invokes fn with the target asset, and guarantees
// cleanup on every exit path.
func (p *Plan) RunFunc(ctx context.Context, fn func(core.Asset) error, opts ...RunOption) error {
	asset, release, err := p.Run(ctx, opts...)
	if err != nil {
		return err
	}
	runErr := fn(asset)
	cleanupErr := release()
	if runErr != nil {
		return runErr
	}
	return cleanupErr
}
