package shared

import (
	"context"
	"net/http"
	"strings"
)

// Actor identifies the back-office user performing an operation. Identity is
// established by the upstream auth layer and forwarded via headers.
type Actor struct {
	ID   string
	Name string
}

// Anonymous is used when no actor headers are present.
var Anonymous = Actor{ID: "system", Name: "System"}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor, falling back to Anonymous.
func ActorFromContext(ctx context.Context) Actor {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	if !ok || actor.ID == "" {
		return Anonymous
	}
	return actor
}

// ActorFromRequest reads the forwarded identity headers.
func ActorFromRequest(r *http.Request) Actor {
	id := strings.TrimSpace(r.Header.Get("X-Actor-ID"))
	if id == "" {
		return Anonymous
	}
	name := strings.TrimSpace(r.Header.Get("X-Actor-Name"))
	if name == "" {
		name = id
	}
	return Actor{ID: id, Name: name}
}
