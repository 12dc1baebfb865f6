package domain

import (
	"context"

	"autoassist/internal/models"
)

// Actor is the identity performing an operation. It is built per request and
// passed explicitly to every service call.
type Actor struct {
	UserID   int64
	Username string
	Role     models.Role
	TokenID  string
}

// System is used by CLI tools and startup tasks.
var System = Actor{Username: "system", Role: models.RoleAdministrator}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdministrator
}

// CanManage reports whether the actor may change bookings and inventory.
func (a Actor) CanManage() bool {
	return a.Role.CanManage()
}

// RequireManager returns ErrAuthorization unless the actor is staff or administrator.
func (a Actor) RequireManager(action string) error {
	if !a.CanManage() {
		return Authorization("%s requires staff or administrator role", action)
	}
	return nil
}

// RequireAdmin returns ErrAuthorization unless the actor is an administrator.
func (a Actor) RequireAdmin(action string) error {
	if !a.IsAdmin() {
		return Authorization("%s requires administrator role", action)
	}
	return nil
}

type actorKey struct{}

// WithActor stores the actor in ctx. Only the HTTP layer reads it back.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}
