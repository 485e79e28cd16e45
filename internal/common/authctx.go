package common

import "context"

type ctxKey string

const identityKey ctxKey = "auth/identity"

// Identity describes the authenticated platform user attached to a request.
type Identity struct {
	UserID int64
	Email  string
	Name   string
}

// WithIdentity stores the authenticated identity on the provided context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the authenticated identity from the context if present.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	v := ctx.Value(identityKey)
	if v == nil {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok && id.UserID != 0
}

// UserID extracts just the authenticated user identifier.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := IdentityFrom(ctx)
	return id.UserID, ok
}
