package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/miroapi/internal/errors"
	"github.com/kbukum/miroapi/internal/logger"
)

// RespondWithError writes the AppError envelope for err. Errors that are
// not AppErrors become a generic 500. 5xx causes are logged, never sent.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError && appErr.Cause != nil {
		log, _ := c.Get(loggerKey)
		if l, ok := log.(*logger.Logger); ok {
			l.WithContext(c.Request.Context()).Error("request failed", logger.Fields(
				"code", string(appErr.Code), logger.FieldError, appErr.Cause.Error(),
			))
		}
	}
	if appErr.HTTPStatus == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

const loggerKey = "miroapi.logger"

// WithLogger makes RespondWithError log through log.
func WithLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(loggerKey, log)
		c.Next()
	}
}

func notFound() *errors.AppError {
	return errors.NotFound("route", "")
}

func methodNotAllowed() *errors.AppError {
	return errors.New(errors.ErrCodeInvalidInput, "Method Not Allowed", http.StatusMethodNotAllowed)
}
