package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error checking via errors.Is(), one per
// spec'd error kind. Every typed error below wraps exactly one of these.
var (
	ErrMissingRecipe        = errors.New("missing recipe")
	ErrAmbiguousTarget      = errors.New("ambiguous or missing target recipe")
	ErrAmbiguousRecipe      = errors.New("ambiguous recipe")
	ErrDoubleContract       = errors.New("double contract")
	ErrCycle                = errors.New("cycle detected")
	ErrNoIsolatingEdge      = errors.New("no isolating edge")
	ErrBadContractSpec      = errors.New("bad contract spec")
	ErrInvalidDependencyType = errors.New("invalid dependency type")
	ErrBuildFailed          = errors.New("build failed")
	ErrCleanupFailed        = errors.New("cleanup failed")
)

// MissingRecipeError reports that no registered recipe can satisfy a
// contract on the given planning path.
type MissingRecipeError struct {
	Contract Contract
	Path     []Contract // contracts from the unmet dependency up to the target, inclusive
}

func (e *MissingRecipeError) Error() string {
	return fmt.Sprintf("%s: no recipe satisfies %s (path: %v)", ErrMissingRecipe, e.Contract, e.Path)
}

func (e *MissingRecipeError) Unwrap() error { return ErrMissingRecipe }

// AmbiguousTargetError reports that zero or many recipes claim the
// requested target contract with the empty context path.
type AmbiguousTargetError struct {
	Contract Contract
	Count    int
}

func (e *AmbiguousTargetError) Error() string {
	return fmt.Sprintf("%s: %d recipes claim target %s with empty context, want exactly 1", ErrAmbiguousTarget, e.Count, e.Contract)
}

func (e *AmbiguousTargetError) Unwrap() error { return ErrAmbiguousTarget }

// AmbiguousRecipeError reports a tie at maximum fitness > 0 among
// candidates for a contract.
type AmbiguousRecipeError struct {
	Contract   Contract
	Candidates []string // recipe names tied at max fitness
	Path       []Contract
}

func (e *AmbiguousRecipeError) Error() string {
	return fmt.Sprintf("%s: %d candidates tied for %s (path: %v): %v", ErrAmbiguousRecipe, len(e.Candidates), e.Contract, e.Path, e.Candidates)
}

func (e *AmbiguousRecipeError) Unwrap() error { return ErrAmbiguousRecipe }

// DoubleContractError reports that planning tried to install two producers
// for the same contract on the same consumer node.
type DoubleContractError struct {
	Consumer string // recipe name of the consumer node, for diagnostics
	Contract Contract
}

func (e *DoubleContractError) Error() string {
	return fmt.Sprintf("%s: %s already has a producer for %s", ErrDoubleContract, e.Consumer, e.Contract)
}

func (e *DoubleContractError) Unwrap() error { return ErrDoubleContract }

// CycleError reports that useEdge detected the edge it was about to append
// already present on the planning path.
type CycleError struct {
	Contract Contract
	Path     []Contract
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: edge for %s already on path %v", ErrCycle, e.Contract, e.Path)
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// NoIsolatingEdgeError reports that a split could not cleanly separate a
// matching simple path from the non-matching ones.
type NoIsolatingEdgeError struct {
	MatchingPath []Contract
}

func (e *NoIsolatingEdgeError) Error() string {
	return fmt.Sprintf("%s: no isolating edge found for matching path %v", ErrNoIsolatingEdge, e.MatchingPath)
}

func (e *NoIsolatingEdgeError) Unwrap() error { return ErrNoIsolatingEdge }

// BadContractSpecError reports a malformed context spec at registration
// time: neither an asset type, a set of asset types, a 2-tuple, nor a
// finite sequence of those.
type BadContractSpecError struct {
	Spec any
}

func (e *BadContractSpecError) Error() string {
	return fmt.Sprintf("%s: %#v", ErrBadContractSpec, e.Spec)
}

func (e *BadContractSpecError) Unwrap() error { return ErrBadContractSpec }

// InvalidDependencyTypeError reports that a declared dependency field's
// type is not usable as an asset contract.
type InvalidDependencyTypeError struct {
	Recipe string
	Field  string
	Type   string
}

func (e *InvalidDependencyTypeError) Error() string {
	return fmt.Sprintf("%s: recipe %s field %s has type %s, want a Ref[T] of an Asset", ErrInvalidDependencyType, e.Recipe, e.Field, e.Type)
}

func (e *InvalidDependencyTypeError) Unwrap() error { return ErrInvalidDependencyType }

// BuildFailedError wraps a recipe's Make() failure, chained via %w so the
// original cause survives errors.Unwrap traversal.
type BuildFailedError struct {
	Asset  AssetType
	Recipe string
	Cause  error
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("%s: building %s with recipe %s: %v", ErrBuildFailed, e.Asset, e.Recipe, e.Cause)
}

func (e *BuildFailedError) Unwrap() error { return e.Cause }

// Is reports ErrBuildFailed as a match in addition to Cause, so callers can
// test errors.Is(err, core.ErrBuildFailed) without losing errors.Is(err, cause).
func (e *BuildFailedError) Is(target error) bool { return target == ErrBuildFailed }

// CleanupFailedError aggregates every AssetRecord release failure
// encountered while tearing down a plan, preserving each individual cause.
type CleanupFailedError struct {
	Errors error // *multierror.Error from hashicorp/go-multierror
}

func (e *CleanupFailedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCleanupFailed, e.Errors)
}

func (e *CleanupFailedError) Unwrap() error { return e.Errors }

func (e *CleanupFailedError) Is(target error) bool { return target == ErrCleanupFailed }
