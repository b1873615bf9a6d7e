package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/config"
	"github.com/geocoder89/salestrack/internal/observability"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(ctx context.Context, username, password string) (auth.Session, error)
}

type AuthHandler struct {
	login Authenticator
	prom  *observability.Prom
}

func NewAuthHandler(login Authenticator, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{login: login, prom: prom}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	session, err := h.login.Login(cctx, req.Username, req.Password)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeUnauthorized {
			h.prom.ObserveAuth("login", "rejected")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": apperr.As(err).Message(),
			})
			return
		}

		h.prom.ObserveAuth("login", "error")
		RespondAppError(ctx, err)
		return
	}

	h.prom.ObserveAuth("login", "ok")

	ctx.JSON(http.StatusOK, gin.H{
		"success":     true,
		"user":        session.User,
		"message":     "Login successful",
		"accessToken": session.AccessToken,
		"expiresAt":   session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Me echoes the identity the request was resolved to.
func (h *AuthHandler) Me(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": who})
}
