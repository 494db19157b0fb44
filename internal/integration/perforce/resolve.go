package perforce

import (
	"context"
	"fmt"
)

// ResolveMode is an automatic resolve strategy.
type ResolveMode string

// Automatic resolve flags.
const (
	ResolveTheirs ResolveMode = "-at"
	ResolveYours  ResolveMode = "-ay"
	ResolveMerge  ResolveMode = "-am"
	ResolveSafe   ResolveMode = "-as"
)

// ResolveResult is the outcome of an automatic resolve.
type ResolveResult struct {
	Outcome Outcome
	// Output is the stdout of the resolve.
	Output string
}

// Resolve runs "p4 resolve -db <mode>" over all files needing resolve,
// ignoring whitespace changes. Having no files to resolve is a success.
func (s *Session) Resolve(ctx context.Context, mode ResolveMode) (ResolveResult, error) {
	switch mode {
	case ResolveTheirs, ResolveYours, ResolveMerge, ResolveSafe:
	default:
		return ResolveResult{Outcome: OutcomeFailed}, fmt.Errorf("resolve mode %q: %w", mode, ErrInvalidArgument)
	}

	res, outcome, err := s.exec(ctx, "resolve", nil, "resolve", "-db", string(mode))
	if err != nil {
		return ResolveResult{Outcome: OutcomeFailed}, err
	}
	return ResolveResult{Outcome: outcome, Output: res.Stdout}, nil
}

// ResolveToTheirs accepts the source revision for every conflict.
func (s *Session) ResolveToTheirs(ctx context.Context) (ResolveResult, error) {
	return s.Resolve(ctx, ResolveTheirs)
}

// ResolveToYours keeps the workspace revision for every conflict.
func (s *Session) ResolveToYours(ctx context.Context) (ResolveResult, error) {
	return s.Resolve(ctx, ResolveYours)
}

// ResolveToMerge accepts automatic merges, skipping real conflicts.
func (s *Session) ResolveToMerge(ctx context.Context) (ResolveResult, error) {
	return s.Resolve(ctx, ResolveMerge)
}

// ResolveSafe accepts only files changed on one side.
func (s *Session) ResolveSafe(ctx context.Context) (ResolveResult, error) {
	return s.Resolve(ctx, ResolveSafe)
}
