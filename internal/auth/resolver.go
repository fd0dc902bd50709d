package auth

import "context"

// Resolver resolves the identity of the caller of the current request.
// This abstraction keeps the ledger independent of how sessions are
// established (JWT, cookies, service tokens).
type Resolver interface {
	// ResolveActor returns the caller and true, or false when the request
	// is unauthenticated.
	ResolveActor(ctx context.Context) (Actor, bool)
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying the authenticated actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext extracts the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, false
	}
	return actor, true
}

// ContextResolver resolves the actor placed in the context by the auth
// interceptor.
type ContextResolver struct{}

// ResolveActor implements Resolver.
func (ContextResolver) ResolveActor(ctx context.Context) (Actor, bool) {
	return ActorFromContext(ctx)
}

// StaticResolver always resolves to the same actor. Useful for tools and tests.
type StaticResolver struct {
	Actor Actor
}

// ResolveActor implements Resolver. An empty actor ID means unauthenticated.
func (r StaticResolver) ResolveActor(context.Context) (Actor, bool) {
	if r.Actor.ID == "" {
		return Actor{}, false
	}
	return r.Actor, true
}
