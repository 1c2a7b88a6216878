package services

import (
	"context"

	"pulse-chat/internal/domain/ids"
)

type contextKey string

const userIDContextKey contextKey = "acting_user_id"

// WithUserContext stores the authenticated user's id for request-scoped
// logging. Core operations never read it implicitly; every command takes the
// acting user id as an explicit argument.
func WithUserContext(ctx context.Context, userID ids.UserID) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func UserIDFromContext(ctx context.Context) (ids.UserID, bool) {
	id, ok := ctx.Value(userIDContextKey).(ids.UserID)
	return id, ok
}
