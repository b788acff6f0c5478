package shared

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActorFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/vouchers", nil)
	r.Header.Set("X-Actor-ID", "u-7")
	r.Header.Set("X-Actor-Name", "Front Desk")

	actor := ActorFromRequest(r)
	assert.Equal(t, Actor{ID: "u-7", Name: "Front Desk"}, actor)
}

func TestActorFromRequestDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/vouchers", nil)
	assert.Equal(t, Anonymous, ActorFromRequest(r))

	r.Header.Set("X-Actor-ID", "u-7")
	actor := ActorFromRequest(r)
	assert.Equal(t, "u-7", actor.Name)
}

func TestActorContextRoundTrip(t *testing.T) {
	ctx := ContextWithActor(context.Background(), Actor{ID: "u-3", Name: "Ops"})
	assert.Equal(t, "u-3", ActorFromContext(ctx).ID)

	assert.Equal(t, Anonymous, ActorFromContext(context.Background()))
}

func TestPagination(t *testing.T) {
	p := NewPagination(3, 20, 45)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 40, p.Offset())

	p = NewPagination(0, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.TotalPages)
}
