package httpapi

import "context"

type ctxKey int

const identityKey ctxKey = iota

// Identity is the authenticated caller extracted from the access token.
type Identity struct {
	UserID      string
	HouseholdID string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromCtx returns the caller identity set by the auth middleware.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
