package identity

import (
	"context"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Identity represents the authenticated identity for a request.
type Identity struct {
	// Sub is the stable subject identifier from the token
	Sub string
	// Email is the user's email, used as reviewer identity
	Email string
	// Name is the display name, if the token carries one
	Name string
	// Roles are the user's roles (e.g. "reviewer")
	Roles []string

	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasRole reports whether the identity carries a role.
func (i *Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
