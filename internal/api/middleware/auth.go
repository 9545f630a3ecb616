package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/xbcsmith/xzepr/internal/auth"
	apperrors "github.com/xbcsmith/xzepr/internal/pkg/errors"
)

// RequireAuth validates the Bearer token against cfg and populates the
// request context with the principal, delegating all token mechanics
// (signature, expiry, revocation) to internal/auth (spec.md §4.7, §4.12).
func RequireAuth(cfg auth.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortAuth(c, apperrors.CodeMissingToken, "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortAuth(c, apperrors.CodeMissingToken, "invalid authorization header format")
			return
		}

		claims, err := auth.Validate(c.Request.Context(), cfg, parts[1])
		if err != nil {
			authFailuresTotal.WithLabelValues(authFailureReason(err)).Inc()
			abortAuth(c, authFailureReason(err), authFailureMessage(err))
			return
		}

		c.Request = c.Request.WithContext(SetUserContext(c.Request.Context(), claims.Subject, claims.Roles, claims.Permissions))
		c.Set("user_id", claims.Subject)
		c.Set("roles", claims.Roles)
		c.Set("permissions", claims.Permissions)
		c.Next()
	}
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.CodeExpiredToken
	case errors.Is(err, auth.ErrTokenRevoked):
		return apperrors.CodeRevokedToken
	default:
		return apperrors.CodeInvalidToken
	}
}

func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "token revoked"
	default:
		return "invalid token"
	}
}

func abortAuth(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "message": message})
}
