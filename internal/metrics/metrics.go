// Package metrics exposes the planner's Prometheus instrumentation:
// counters around planning and execution activity. Registration happens
// against prometheus.DefaultRegisterer at package init, mirroring the
// promauto convention.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlansBuilt counts successful Registry.Plan calls.
	PlansBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "buildplan",
		Name:      "plans_built_total",
		Help:      "Number of plans successfully compiled.",
	})

	// PlanFailures counts Registry.Plan calls that returned an error,
	// labeled by the error kind (e.g. missing_recipe, ambiguous_recipe).
	PlanFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "buildplan",
		Name:      "plan_failures_total",
		Help:      "Number of plan compilations that failed, by error kind.",
	}, []string{"kind"})

	// Splits counts subgraph splits performed across all planning runs.
	Splits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "buildplan",
		Name:      "splits_total",
		Help:      "Number of subgraph splits performed during planning.",
	})

	// RunsStarted counts Plan.Run invocations.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "buildplan",
		Name:      "runs_started_total",
		Help:      "Number of plan executions started.",
	})

	// NodesBuilt counts individual recipe build attempts across all runs,
	// failed ones included (it is incremented from the AfterNode hook).
	NodesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "buildplan",
		Name:      "nodes_built_total",
		Help:      "Number of graph node builds attempted, including failed ones.",
	})

	// BuildFailures counts recipe Make() failures.
	BuildFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "buildplan",
		Name:      "build_failures_total",
		Help:      "Number of recipe Make() calls that failed.",
	})

	// CleanupFailures counts AssetRecord release failures.
	CleanupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "buildplan",
		Name:      "cleanup_failures_total",
		Help:      "Number of AssetRecord release failures.",
	})
)
