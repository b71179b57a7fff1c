package auth

import "context"

type ctxKey struct{}

// WithIdentity returns a child context carrying the identity.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request identity, or nil when the request is
// unauthenticated. It never fails.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// RequireAuthentication returns the request identity or
// ErrAuthenticationRequired when none is present.
func RequireAuthentication(ctx context.Context) (*Identity, error) {
	id := FromContext(ctx)
	if id == nil {
		return nil, ErrAuthenticationRequired
	}
	return id, nil
}

// RequireAdmin returns the identity when it is authenticated and holds the
// ADMIN role; ErrAuthorizationDenied otherwise.
func RequireAdmin(ctx context.Context) (*Identity, error) {
	id, err := RequireAuthentication(ctx)
	if err != nil {
		return nil, err
	}
	if !id.IsAdmin() {
		return nil, ErrAuthorizationDenied
	}
	return id, nil
}
