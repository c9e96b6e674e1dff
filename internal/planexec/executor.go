// Package planexec drives a planned graph to completion: it builds nodes
// in topological order, resolves each recipe's working directory,
// instantiates recipes with their injected dependencies, and releases
// built assets in reverse order, eagerly or deferred.
package planexec

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/hashicorp/go-multierror"

	"github.com/samgonzalez27/buildplan/internal/core"
	"github.com/samgonzalez27/buildplan/internal/hooks"
	"github.com/samgonzalez27/buildplan/internal/metrics"
	"github.com/samgonzalez27/buildplan/internal/planalgorithm"
	"github.com/samgonzalez27/buildplan/internal/workdir"
)

// WorkdirSpec lets a recipe declare a persistent, named working directory
// instead of the default fresh temporary directory. Recipes that don't
// need persistence simply don't implement WorkdirDeclarer.
type WorkdirSpec struct {
	Name   string
	Shared bool
}

// WorkdirDeclarer is implemented by recipes that need a persistent
// working directory rather than a fresh temporary one per build.
type WorkdirDeclarer interface {
	Workdir() WorkdirSpec
}

// Options configures one Executor run.
type Options struct {
	Root         workdir.RootConfig
	EagerCleanup bool
	Hooks        hooks.Hooks
	Capabilities *core.Capabilities
}

// assetRecord is the executor's handle to a built asset and its release
// hook, analogous to the Python original's ExitStack-backed AssetRecord.
type assetRecord struct {
	asset  core.Asset
	onDrop func() error
	tmpDir string
}

func (r *assetRecord) release() error {
	var errs *multierror.Error
	if r.onDrop != nil {
		if err := r.onDrop(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if r.tmpDir != "" {
		if err := os.RemoveAll(r.tmpDir); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Executor runs a single planned graph to completion.
type Executor struct {
	graph   *planalgorithm.Graph
	order   []*planalgorithm.GraphNode
	target  *planalgorithm.GraphNode
	opts    Options
	hooks   hooks.Hooks
	records map[*planalgorithm.GraphNode]*assetRecord
	// built order, for reverse-topological final cleanup
	built []*planalgorithm.GraphNode
	// eagerCleanupErrs collects failures from eager (inline, non-target)
	// releases during Run, so they still surface in teardown's aggregate
	// CleanupFailedError instead of being silently dropped.
	eagerCleanupErrs *multierror.Error
}

// New prepares an Executor for graph, whose unique sink is target.
func New(graph *planalgorithm.Graph, target *planalgorithm.GraphNode, opts Options) *Executor {
	return &Executor{
		graph:   graph,
		order:   graph.TopoOrder(),
		target:  target,
		opts:    opts,
		hooks:   hooks.Safe(opts.Hooks),
		records: make(map[*planalgorithm.GraphNode]*assetRecord),
	}
}

// Run builds every node in topological order and returns the target's
// built asset together with a release function that tears down every
// surviving AssetRecord in reverse build order. The release function is
// safe to call exactly once; callers that want automatic cleanup should
// use RunFunc instead.
func (e *Executor) Run(ctx context.Context) (core.Asset, func() error, error) {
	if e.opts.Root.HasRoot() {
		if err := os.MkdirAll(e.opts.Root.Root, 0o755); err != nil {
			return nil, nil, fmt.Errorf("planexec: create root: %w", err)
		}
	}
	if e.opts.Capabilities != nil {
		ctx = core.WithCapabilities(ctx, e.opts.Capabilities)
	}

	e.hooks.BeforeRun(ctx)
	defer e.hooks.AfterRun(ctx)

	remainingUses := make(map[*planalgorithm.GraphNode]int, len(e.order))
	for _, n := range e.order {
		remainingUses[n] = e.graph.OutDegree(n)
	}

	for _, n := range e.order {
		rec, err := e.buildNode(ctx, n)
		if err != nil {
			e.teardown()
			return nil, nil, err
		}
		e.records[n] = rec
		e.built = append(e.built, n)

		for _, in := range e.graph.InEdges(n) {
			u := in.From
			remainingUses[u]--
			if remainingUses[u] < 0 {
				panic("planexec: remaining use count went negative")
			}
			if !e.opts.EagerCleanup || u == e.target || remainingUses[u] != 0 {
				continue
			}
			rec := e.records[u]
			delete(e.records, u)
			if rec == nil {
				continue
			}
			if err := rec.release(); err != nil {
				metrics.CleanupFailures.Inc()
				e.eagerCleanupErrs = multierror.Append(e.eagerCleanupErrs, err)
			}
		}
	}

	targetRecord := e.records[e.target]
	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		return e.teardown()
	}
	return targetRecord.asset, release, nil
}

// RunFunc runs the executor, invokes fn with the target asset, and
// guarantees cleanup on every exit path — mirroring the Python original's
// `with plan.run() as asset:` block for callers who don't want to manage
// the release function themselves.
func (e *Executor) RunFunc(ctx context.Context, fn func(core.Asset) error) error {
	asset, release, err := e.Run(ctx)
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

// teardown releases every surviving record in reverse build order,
// aggregating failures into a CleanupFailedError.
func (e *Executor) teardown() error {
	errs := e.eagerCleanupErrs
	for i := len(e.built) - 1; i >= 0; i-- {
		n := e.built[i]
		rec, ok := e.records[n]
		if !ok {
			continue
		}
		delete(e.records, n)
		if err := rec.release(); err != nil {
			metrics.CleanupFailures.Inc()
			errs = multierror.Append(errs, err)
		}
	}
	if errs.ErrorOrNil() == nil {
		return nil
	}
	return &core.CleanupFailedError{Errors: errs}
}

func (e *Executor) buildNode(ctx context.Context, n *planalgorithm.GraphNode) (*assetRecord, error) {
	e.hooks.BeforeNode(ctx, n.Recipe.Name)
	defer e.hooks.AfterNode(ctx, n.Recipe.Name)

	recipe := n.Recipe.Factory()

	path, tmpDir, err := e.resolveWorkdir(recipe)
	if err != nil {
		return nil, err
	}

	if wa, ok := recipe.(workdirAware); ok {
		wa.SetWorkdir(path)
	}

	deps, err := core.ParseDependencies(reflect.TypeOf(recipe))
	if err != nil {
		return nil, err
	}
	if err := core.BindDependencies(recipe, deps, func(c core.Contract) (core.Asset, error) {
		for _, in := range e.graph.InEdges(n) {
			if in.Contract == c {
				return e.records[in.From].asset, nil
			}
		}
		return nil, fmt.Errorf("planexec: no built input satisfies contract %s for %s", c, n.Recipe.Name)
	}); err != nil {
		return nil, err
	}

	res, err := recipe.Make(ctx)
	if err != nil {
		metrics.BuildFailures.Inc()
		if tmpDir != "" {
			_ = os.RemoveAll(tmpDir)
		}
		return nil, &core.BuildFailedError{Asset: n.Recipe.Produces(), Recipe: n.Recipe.Name, Cause: err}
	}

	rec := &assetRecord{asset: res.Asset(), onDrop: res.OnDrop(), tmpDir: tmpDir}
	return rec, nil
}

// workdirAware lets a recipe receive its resolved working directory
// without widening the Recipe interface itself.
type workdirAware interface {
	SetWorkdir(path string)
}

func (e *Executor) resolveWorkdir(recipe core.Recipe) (path string, tmpDir string, err error) {
	wd, ok := recipe.(WorkdirDeclarer)
	if !ok {
		dir, err := os.MkdirTemp("", "buildplan-*")
		if err != nil {
			return "", "", fmt.Errorf("planexec: create temp dir: %w", err)
		}
		return dir, dir, nil
	}
	spec := wd.Workdir()
	path, err = workdir.Resolve(e.opts.Root, spec.Name, spec.Shared)
	if err != nil {
		return "", "", err
	}
	return path, "", nil
}
