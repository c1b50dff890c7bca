package middleware

import (
	"context"

	"github.com/mvelasco/clipvault/pkg/enums"
)

type contextKey string

const (
	ctxRole      contextKey = "actor_role"
	ctxSessionID contextKey = "session_id"
)

// RoleFromContext returns the session role, defaulting to guest for requests
// that presented no credentials.
func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return enums.RoleGuest
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok && v.IsValid() {
		return v
	}
	return enums.RoleGuest
}

func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithRole injects the session role into the context.
func WithRole(ctx context.Context, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

func withSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxSessionID, sessionID)
}
