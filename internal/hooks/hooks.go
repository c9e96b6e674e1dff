// Package hooks provides the executor's instrumentation points: optional
// synchronous callbacks fired before/after the whole run and before/after
// each node build. It is adapted from the teacher's plugin hook-dispatch
// engine, repurposed from dispatching third-party plugins to driving the
// planner's own built-in logging and metrics.
package hooks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/samgonzalez27/buildplan/internal/metrics"
)

// Hooks are inert: implementations must not panic and should return
// quickly, since they run inline with execution. The executor recovers
// panics and never lets a hook failure abort or alter a build.
type Hooks interface {
	BeforeRun(ctx context.Context)
	AfterRun(ctx context.Context)
	BeforeNode(ctx context.Context, nodeName string)
	AfterNode(ctx context.Context, nodeName string)
}

// Nop is the zero-cost Hooks implementation; Safe(nil) returns it, so
// callers never need to special-case "no hooks".
type Nop struct{}

func (Nop) BeforeRun(context.Context)          {}
func (Nop) AfterRun(context.Context)           {}
func (Nop) BeforeNode(context.Context, string) {}
func (Nop) AfterNode(context.Context, string)  {}

// Safe wraps h so that every call recovers a panic, logs it, and never
// propagates — matching the teacher's HookEngine contract. Use Safe
// around any caller-supplied Hooks before passing it to the executor.
func Safe(h Hooks) Hooks {
	if h == nil {
		return Nop{}
	}
	return &safeHooks{inner: h}
}

type safeHooks struct{ inner Hooks }

func (s *safeHooks) BeforeRun(ctx context.Context) {
	defer recoverAndLog("BeforeRun")
	s.inner.BeforeRun(ctx)
}

func (s *safeHooks) AfterRun(ctx context.Context) {
	defer recoverAndLog("AfterRun")
	s.inner.AfterRun(ctx)
}

func (s *safeHooks) BeforeNode(ctx context.Context, nodeName string) {
	defer recoverAndLog("BeforeNode")
	s.inner.BeforeNode(ctx, nodeName)
}

func (s *safeHooks) AfterNode(ctx context.Context, nodeName string) {
	defer recoverAndLog("AfterNode")
	s.inner.AfterNode(ctx, nodeName)
}

func recoverAndLog(hook string) {
	if r := recover(); r != nil {
		log.Error("hooks: panic recovered", "hook", hook, "recover", fmt.Sprint(r))
	}
}

// Logging is the default Hooks implementation: it logs each transition via
// charmbracelet/log and records Prometheus counters via the metrics
// package.
type Logging struct {
	Logger *log.Logger
}

// NewLogging returns a Logging hooks implementation using the package
// default logger.
func NewLogging() *Logging {
	return &Logging{Logger: log.Default()}
}

func (l *Logging) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}

func (l *Logging) BeforeRun(context.Context) {
	l.logger().Debug("plan run starting")
	metrics.RunsStarted.Inc()
}

func (l *Logging) AfterRun(context.Context) {
	l.logger().Debug("plan run finished")
}

func (l *Logging) BeforeNode(_ context.Context, nodeName string) {
	l.logger().Debug("building node", "node", nodeName)
}

func (l *Logging) AfterNode(_ context.Context, nodeName string) {
	l.logger().Debug("built node", "node", nodeName)
	metrics.NodesBuilt.Inc()
}
