package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const (
	// RequestIDHeader carries the correlation id named in spec.md §7.
	RequestIDHeader = "X-Request-ID"

	ctxKeyRequestID   contextKey = "request_id"
	ctxKeyUserID      contextKey = "user_id"
	ctxKeyRoles       contextKey = "roles"
	ctxKeyPermissions contextKey = "permissions"
)

// RequestID injects a unique request ID into the context and response header.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			id, _ := uuid.NewV7()
			rid = id.String()
		}
		c.Set(string(ctxKeyRequestID), rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), ctxKeyRequestID, rid),
		)
		c.Next()
	}
}

// GetRequestID extracts request ID from context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// SetUserContext stores the authenticated principal on the request context
// for downstream handlers and the policy authorization stage to consume.
func SetUserContext(ctx context.Context, userID string, roles, permissions []string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	ctx = context.WithValue(ctx, ctxKeyRoles, roles)
	ctx = context.WithValue(ctx, ctxKeyPermissions, permissions)
	return ctx
}

// GetUserID extracts user ID from context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// GetRoles extracts user roles from context.
func GetRoles(ctx context.Context) []string {
	if v, ok := ctx.Value(ctxKeyRoles).([]string); ok {
		return v
	}
	return nil
}

// GetPermissions extracts derived permissions from context.
func GetPermissions(ctx context.Context) []string {
	if v, ok := ctx.Value(ctxKeyPermissions).([]string); ok {
		return v
	}
	return nil
}
