package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/miroapi/internal/auth/authctx"
	"github.com/kbukum/miroapi/internal/errors"
	"github.com/kbukum/miroapi/internal/logger"
)

// Authenticator resolves a bearer token to an identity.
type Authenticator[T any] interface {
	Authenticate(ctx context.Context, token string) (T, error)
}

// Bearer guards a route group. The identity resolved by a is stored in the
// request context, readable with authctx.Get[T].
func Bearer[T any](a Authenticator[T], log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, errors.Unauthorized(""))
			return
		}

		id, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			appErr, ok := errors.AsAppError(err)
			if !ok {
				appErr = errors.Internal(err)
			}
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				log.WithContext(c.Request.Context()).Error("authentication failed", logger.ErrorFields("authenticate", err))
			}
			abort(c, appErr)
			return
		}

		c.Request = c.Request.WithContext(authctx.Set(c.Request.Context(), id))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abort(c *gin.Context, appErr *errors.AppError) {
	if appErr.HTTPStatus == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
