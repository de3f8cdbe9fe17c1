package resource

import "context"

type runIDKey struct{}

// WithRunID returns a context carrying the identifier of the current convergence run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFrom returns the run identifier stored in ctx, or an empty string.
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
