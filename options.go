package buildplan

import (
	"github.com/go-playground/validator/v10"

	"github.com/samgonzalez27/buildplan/internal/core"
	"github.com/samgonzalez27/buildplan/internal/fitness"
	"github.com/samgonzalez27/buildplan/internal/hooks"
	"github.com/samgonzalez27/buildplan/internal/workdir"
)

var validate = validator.New()

// addConfig is assembled from AddOption and validated before registration.
type addConfig struct {
	Key     string `validate:"max=64"`
	Context core.Seq
}

// AddOption configures a single Registry.Add or Registry.AddBundle call.
type AddOption func(*addConfig)

// WithKey registers the recipe under the given contract key instead of the
// absent (empty-string) key. Key must be a short string (at most 64
// characters).
func WithKey(key string) AddOption {
	return func(c *addConfig) { c.Key = key }
}

// WithContext declares the preferred consumer chain(s) the recipe should
// win fitness ties for. See core.AssetSpec, core.AssetSet, core.ContractOf,
// and core.ContractSet for building spec positions.
func WithContext(spec ...core.ContractSpec) AddOption {
	return func(c *addConfig) { c.Context = core.Seq(spec) }
}

func newAddConfig(opts []AddOption) (addConfig, error) {
	cfg := addConfig{}
	for _, o := range opts {
		o(&cfg)
	}
	if err := validate.Struct(&cfg); err != nil {
		return addConfig{}, err
	}
	return cfg, nil
}

// planConfig is assembled from PlanOption. The scorer's weights are fixed
// at planning time, since planning is where fitness scoring happens.
type planConfig struct {
	FitnessOpts fitness.Options
}

// PlanOption configures a single Registry.Plan call.
type PlanOption func(*planConfig)

// WithFitnessWeights overrides the scorer's lengthWeight and earlyTieBreaker
// for this plan; epsilon stays at its default.
func WithFitnessWeights(lengthWeight, earlyTieBreaker float64) PlanOption {
	return func(c *planConfig) {
		c.FitnessOpts.LengthWeight = lengthWeight
		c.FitnessOpts.EarlyTieBreaker = earlyTieBreaker
	}
}

// WithEpsilon overrides the scorer's zero-guard ε for this plan.
func WithEpsilon(epsilon float64) PlanOption {
	return func(c *planConfig) { c.FitnessOpts.Epsilon = epsilon }
}

func newPlanConfig(opts []PlanOption) planConfig {
	cfg := planConfig{FitnessOpts: fitness.DefaultOptions()}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// runConfig is assembled from RunOption.
type runConfig struct {
	Root         workdir.RootConfig
	EagerCleanup bool
	Hooks        hooks.Hooks
	Capabilities *core.Capabilities
}

// RunOption configures a single Plan.Run or Plan.RunFunc call.
type RunOption func(*runConfig)

// WithRoot gives the plan a persistent-directory root and, optionally, a
// project name for project-scoped (non-shared) working directories.
func WithRoot(root, project string) RunOption {
	return func(c *runConfig) { c.Root = workdir.RootConfig{Root: root, Project: project} }
}

// WithEagerCleanup releases an asset as soon as its last consumer has been
// built, rather than waiting until the whole plan is torn down. Default is
// eager, matching spec's run(eagerCleanup = true) default; use
// WithDeferredCleanup to opt out.
func WithEagerCleanup() RunOption {
	return func(c *runConfig) { c.EagerCleanup = true }
}

// WithDeferredCleanup defers every release to scope exit instead of the
// default eager behavior.
func WithDeferredCleanup() RunOption {
	return func(c *runConfig) { c.EagerCleanup = false }
}

// WithHooks installs execution lifecycle hooks, replacing the default
// logging hooks.
func WithHooks(h hooks.Hooks) RunOption {
	return func(c *runConfig) { c.Hooks = h }
}

// WithCapabilities attaches a capability bag recipes can read via
// core.CapabilitiesFrom(ctx) inside Make.
func WithCapabilities(caps *core.Capabilities) RunOption {
	return func(c *runConfig) { c.Capabilities = caps }
}

func newRunConfig(opts []RunOption) runConfig {
	cfg := runConfig{
		Hooks:        hooks.NewLogging(),
		EagerCleanup: true,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
