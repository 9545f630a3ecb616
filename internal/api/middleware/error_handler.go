// Package middleware implements the edge chain (spec.md §4.12): security
// headers, CORS, metrics, body limits, rate limiting, tracing, JWT
// authentication and policy authorization, wired around gin.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/xbcsmith/xzepr/internal/pkg/errors"
	"github.com/xbcsmith/xzepr/internal/pkg/logger"
)

// ErrorHandler centralizes the error → response envelope mapping (spec.md
// §6: "always including either a data field or {error, message, field?}").
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			logger.Warn("request error",
				zap.String("code", appErr.Code),
				zap.String("message", appErr.Message),
				zap.Int("status", appErr.HTTPStatus),
				zap.Error(appErr.Err),
			)
			body := gin.H{"error": appErr.Code, "message": appErr.Message}
			if appErr.Field != "" {
				body["field"] = appErr.Field
			}
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		logger.Error("unhandled request error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   apperrors.CodeStorageError,
			"message": "internal error",
		})
	}
}
