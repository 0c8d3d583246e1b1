// Package authctx carries the authenticated caller through request contexts
// so outbound clients can forward the caller's bearer token upstream.
package authctx

import "context"

type contextKey string

const (
	userIDKey contextKey = "user_id"
	tokenKey  contextKey = "bearer_token"
)

// WithUser returns a copy of ctx carrying the caller's id and raw token.
func WithUser(ctx context.Context, userID, token string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, tokenKey, token)
}

// UserID returns the caller id stored in ctx, or "".
func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// Token returns the raw bearer token stored in ctx, or "".
func Token(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}
