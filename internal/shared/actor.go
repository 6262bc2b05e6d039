package shared

import "context"

// Role classifies what an authenticated actor may do.
type Role string

const (
	// RoleStaff manages packages, assignments and geofence zones.
	RoleStaff Role = "staff"
	// RoleKurir is the field courier: claims, scans, attendance.
	RoleKurir Role = "kurir"
	// RolePIC reviews attendance records of couriers.
	RolePIC Role = "pic"
)

// IsValid reports whether the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleStaff, RoleKurir, RolePIC:
		return true
	default:
		return false
	}
}

// Actor is the identity resolved from a bearer token. The core services
// trust it as given; authentication happens at the HTTP edge only.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context for the HTTP layer.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context, nil when absent.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}
