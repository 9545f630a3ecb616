package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xbcsmith/xzepr/internal/authz"
	"github.com/xbcsmith/xzepr/internal/domain"
	apperrors "github.com/xbcsmith/xzepr/internal/pkg/errors"
)

// RequirePolicyAuthorization is the policy-authorization stage of the chain
// (spec.md §4.12): it passes the resource named by paramName to the
// authorization pipeline and maps its decision. The pipeline resolves the
// resource before any role check, so a missing resource is denied as
// resource_not_found for every caller, global admins included.
func RequirePolicyAuthorization(pipeline *authz.Pipeline, resourceType string, action authz.Action, paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c.Request.Context())
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": apperrors.CodePermissionDenied, "message": "not authenticated",
			})
			return
		}

		principal := authz.Principal{
			UserID:      domain.UserID(userID),
			Roles:       GetRoles(c.Request.Context()),
			Permissions: GetPermissions(c.Request.Context()),
		}

		resourceID := c.Param(paramName)

		decision, err := pipeline.Authorize(c.Request.Context(), principal, action, resourceType, resourceID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": apperrors.CodeStorageError, "message": "internal error",
			})
			return
		}

		if !decision.Allow {
			code := apperrors.CodePermissionDenied
			if decision.Reason == "not_owner" {
				code = apperrors.CodeNotOwner
			} else if decision.Reason == "resource_not_found" {
				code = apperrors.CodeResourceNotFound
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code, "message": decision.Reason})
			return
		}

		c.Next()
	}
}
