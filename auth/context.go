package auth

import "context"

type identityKey struct{}

// WithIdentity attaches the verified identity of the caller to ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by WithIdentity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// UserID returns the caller's user id, or "" for unauthenticated requests.
func UserID(ctx context.Context) string {
	if id, ok := IdentityFromContext(ctx); ok && !id.IsAnonymous() {
		return id.Principal
	}
	return ""
}

// PlanFromContext returns the caller's plan. Unauthenticated callers are on
// the free plan.
func PlanFromContext(ctx context.Context) Plan {
	if id, ok := IdentityFromContext(ctx); ok && id.Plan.Valid() {
		return id.Plan
	}
	return PlanFree
}
