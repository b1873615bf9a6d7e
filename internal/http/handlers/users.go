package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/config"
	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	List(ctx context.Context, id auth.Identity) ([]user.User, error)
	Get(ctx context.Context, id auth.Identity, userID int64) (user.User, error)
	Create(ctx context.Context, id auth.Identity, req user.CreateRequest) (user.User, error)
	Update(ctx context.Context, id auth.Identity, userID int64, req user.UpdateRequest) (user.User, error)
	Delete(ctx context.Context, id auth.Identity, userID int64) error
}

type UsersHandler struct {
	svc UserService
}

func NewUsersHandler(svc UserService) *UsersHandler {
	return &UsersHandler{svc: svc}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	users, err := h.svc.List(cctx, who)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "user")
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.svc.Get(cctx, who, id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	var req user.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.svc.Create(cctx, who, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "user")
	if !ok {
		return
	}

	var req user.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.svc.Update(cctx, who, id, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "user")
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.svc.Delete(cctx, who, id); err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}
