package middleware

import (
	"context"
	"errors"
	"net/http"

	custom_error "evinventory/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondWithError writes the business error with its status code. Internal
// failures, invariant violations included, leave the handler as a generic 500.
func RespondWithError(c *gin.Context, logger *zap.Logger, message string, err error) {
	status := custom_error.StatusCode(err)
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	_ = c.Error(err)

	if status >= http.StatusInternalServerError {
		if custom_error.IsInvariantViolation(err) {
			logger.Error("Stock invariant violated", zap.String("path", c.FullPath()), zap.Error(err))
		} else {
			logger.Error(message, zap.Error(err))
		}
		c.AbortWithStatusJSON(status, gin.H{"error": message})
		return
	}

	body := gin.H{"error": message, "details": err.Error()}
	var conflict *custom_error.ConflictError
	if errors.As(err, &conflict) && len(conflict.Details) > 0 {
		body["context"] = conflict.Details
	}
	var badRequest *custom_error.BadRequestError
	if errors.As(err, &badRequest) && badRequest.Field != "" {
		body["field"] = badRequest.Field
	}
	c.AbortWithStatusJSON(status, body)
}
