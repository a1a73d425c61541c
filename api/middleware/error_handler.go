// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // Import validator for binding errors
	"github.com/sirupsen/logrus"

	"github.com/Annany2002/nebula-query-gateway/api/models"
	"github.com/Annany2002/nebula-query-gateway/internal/auth"
	"github.com/Annany2002/nebula-query-gateway/internal/core"
	"github.com/Annany2002/nebula-query-gateway/internal/storage"
)

// ErrorHandler creates a Gin middleware for centralized error handling.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// Only the last error decides the response.
		err := c.Errors.Last().Err
		statusCode, userMessage := mapError(err)

		entry := customLog.WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"status":     statusCode,
			"error_type": fmt.Sprintf("%T", err),
		})
		if statusCode >= http.StatusInternalServerError {
			entry.Errorf("[ErrorHandler] %v", err)
		} else {
			entry.Infof("[ErrorHandler] %v", err)
		}

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, models.ErrorResponse{Error: userMessage})
		} else {
			entry.Warn("[ErrorHandler] Response already written before handling error.")
		}
	}
}

// mapError maps an error to its HTTP status code and client message.
// Driver messages are passed through unscrubbed.
func mapError(err error) (int, string) {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, auth.ErrAuthMissing),
		errors.Is(err, auth.ErrAuthInvalid):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrWritePermissionDenied):
		return http.StatusForbidden, err.Error()
	case errors.As(err, &validationErrs):
		for _, fe := range validationErrs {
			customLog.Debugf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
		}
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, core.ErrEmptyBody),
		errors.Is(err, core.ErrMalformedBody),
		errors.Is(err, core.ErrMissingField),
		errors.Is(err, core.ErrInvalidField):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, storage.ErrDatabase):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, core.ErrInternal):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, fmt.Sprintf("%s: %v", core.ErrInternal.Error(), err)
	}
}

// Recovery turns a panic into core.ErrInternal so ErrorHandler can answer
// with the usual JSON body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		_ = c.Error(fmt.Errorf("%w: %v", core.ErrInternal, recovered))
		c.Abort()
	})
}
