package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmops/internal/core/apperror"
	"farmops/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		ctx := c.Request.Context()

		status := http.StatusInternalServerError
		code := apperror.CodeInternal
		body := gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{"request_id": c.GetString("request_id")},
		}

		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code != apperror.CodeInternal {
			if appErr.Err != nil {
				logger.Warn(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
			}
			status = appErr.HTTPStatus
			code = appErr.Code
			body = gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
		} else {
			logger.Error(ctx, "unhandled error", "error", err)
		}

		finishIdempotency(c, status, code, body)

		c.JSON(status, body)
	}
}

// finishIdempotency records a failed outcome under the request's key. A
// deterministic rejection is replayed to retries; a lock conflict or server
// error releases the key so a retry runs the operation again.
func finishIdempotency(c *gin.Context, status int, code string, body any) {
	store, key, ok := idempotencyFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if status >= http.StatusInternalServerError || code == apperror.CodeConcurrencyConflict {
		if err := store.ReleaseKey(ctx, key); err != nil {
			logger.Warn(ctx, "idempotency key release failed", "error", err)
		}
		return
	}
	if err := store.FailKey(ctx, key, status, "application/json", body); err != nil {
		logger.Warn(ctx, "idempotency fail-key write failed", "error", err)
	}
}
