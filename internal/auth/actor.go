package auth

import (
	"context"
	"net/http"
)

// Actor is an authenticated user. ID is the session's email address.
type Actor struct {
	ID string
}

// Is reports whether the actor has the given identity.
func (a *Actor) Is(id string) bool {
	return a != nil && a.ID != "" && a.ID == id
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor, or nil.
func ActorFromContext(ctx context.Context) *Actor {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok {
		return nil
	}
	return &actor
}

// CurrentActor returns the actor RequireAuth attached to r, or nil when the
// request is anonymous.
func CurrentActor(r *http.Request) *Actor {
	return ActorFromContext(r.Context())
}
