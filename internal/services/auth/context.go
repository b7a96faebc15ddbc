package auth

import (
	"context"
	"strings"
)

type identityContextKey string

const identityKey identityContextKey = "auth_identity"

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleOwner     = "owner"
)

// Identity is the caller as asserted by the fronting proxy.
type Identity struct {
	UserID string
	Role   string
}

func (i Identity) HasRole(roles ...string) bool {
	for _, role := range roles {
		if strings.EqualFold(strings.TrimSpace(role), strings.TrimSpace(i.Role)) {
			return true
		}
	}
	return false
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
