package shared

import "context"

type actorContextKey struct{}

type requestIDContextKey struct{}

// SystemActor marks changes made by jobs and the CLI.
const SystemActor = "system"

// ContextWithActor stores the acting user id in context.
func ContextWithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actorID)
}

// ActorFromContext extracts the acting user id, or SystemActor when absent.
func ActorFromContext(ctx context.Context) string {
	if actor, _ := ctx.Value(actorContextKey{}).(string); actor != "" {
		return actor
	}
	return SystemActor
}

// ContextWithRequestID stores the correlation id of the current request.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the correlation id or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
