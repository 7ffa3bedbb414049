package logging

import "context"

type corrKey struct{}

// WithCorrelationID returns a context carrying the correlation id for
// one inbound update. Fail-open paths log it so swallowed errors stay
// traceable.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey{}, id)
}

// CorrelationID returns the correlation id from the context, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(corrKey{}).(string)
	return id
}
