// Package domain holds shared domain types used across modules.
package domain

import "context"

type ctxKey int

const userIDKey ctxKey = iota

// WithUserID returns a context carrying the authenticated owner id.
// Every ledger and portfolio operation reads the owner from the request
// context instead of ambient global state.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated owner id from the context.
// Returns "" when the request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}
