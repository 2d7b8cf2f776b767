package agg

import (
	"context"
	"errors"

	"github.com/gitrisk/hotspot/internal/contract"
	"github.com/gitrisk/hotspot/schema"
)

// WalkQualifying calls fn for every commit of hist that has at least one
// parent and whose author time falls inside window. The context is checked
// before each commit. Backend failures come back as *contract.CommitReadError,
// while errors from fn and context errors are returned unchanged.
func WalkQualifying(ctx context.Context, hist contract.History, window schema.TimeWindow, fn func(schema.Commit) error) error {
	var cbErr error
	err := hist.Walk(ctx, func(c schema.Commit) error {
		if err := ctx.Err(); err != nil {
			cbErr = err
			return err
		}
		if c.IsRoot() || !window.Contains(c.When) {
			return nil
		}
		if err := fn(c); err != nil {
			cbErr = err
			return err
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if cbErr != nil && errors.Is(err, cbErr) {
		return cbErr
	}

	var readErr *contract.CommitReadError
	if errors.As(err, &readErr) {
		return err
	}
	return &contract.CommitReadError{Err: err}
}
