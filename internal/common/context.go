package common

import "context"

// UserContext carries the authenticated user's identity through a request.
type UserContext struct {
	UserID   string
	Email    string
	UserName string
}

type userContextKey struct{}

// WithUserContext returns a context carrying the user context.
func WithUserContext(ctx context.Context, uc *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, uc)
}

// GetUserContext returns the user context, or nil if the request is
// unauthenticated.
func GetUserContext(ctx context.Context) *UserContext {
	uc, _ := ctx.Value(userContextKey{}).(*UserContext)
	return uc
}
