// Package api exposes the auth service over HTTP: registration, the
// password grant, token refresh, logout and the current-user endpoint.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/miroapi/internal/auth"
	"github.com/kbukum/miroapi/internal/auth/authctx"
	"github.com/kbukum/miroapi/internal/errors"
	"github.com/kbukum/miroapi/internal/server"
)

// Handler serves the auth routes.
type Handler struct {
	svc *auth.Service
}

// NewHandler returns a Handler backed by svc.
func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// Ping answers the root path.
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"response": "Ping!"})
}

// Register creates an account from a JSON body.
func (h *Handler) Register(c *gin.Context) {
	var in auth.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		server.RespondWithError(c, errors.Validation("Invalid request body").WithCause(err))
		return
	}
	if _, err := h.svc.Register(c.Request.Context(), in); err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "User created successfully"})
}

// Token implements the password grant. Credentials arrive as form fields.
func (h *Handler) Token(c *gin.Context) {
	var in auth.LoginInput
	if err := c.ShouldBind(&in); err != nil {
		server.RespondWithError(c, errors.Validation("Invalid request body").WithCause(err))
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Refresh exchanges a refresh token sent as a form field or JSON body.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBind(&req); err != nil {
		server.RespondWithError(c, errors.Validation("Invalid request body").WithCause(err))
		return
	}
	if req.RefreshToken == "" {
		server.RespondWithError(c, errors.MissingField("refresh_token"))
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout revokes the caller's tokens.
func (h *Handler) Logout(c *gin.Context) {
	id, ok := authctx.Get[auth.Identity](c.Request.Context())
	if !ok {
		server.RespondWithError(c, errors.Unauthorized(""))
		return
	}
	if err := h.svc.Logout(c.Request.Context(), id); err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller resolved from the bearer token.
func (h *Handler) Me(c *gin.Context) {
	id, ok := authctx.Get[auth.Identity](c.Request.Context())
	if !ok {
		server.RespondWithError(c, errors.Unauthorized(""))
		return
	}
	c.JSON(http.StatusOK, gin.H{"User": id})
}
