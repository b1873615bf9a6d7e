package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/config"
	"github.com/geocoder89/salestrack/internal/domain/apikey"
	"github.com/gin-gonic/gin"
)

type APIKeyService interface {
	List(ctx context.Context, id auth.Identity) ([]apikey.APIKey, error)
	Create(ctx context.Context, id auth.Identity, req apikey.CreateRequest) (apikey.APIKey, error)
	GetFull(ctx context.Context, id auth.Identity, keyID int64) (apikey.APIKey, error)
	SetActive(ctx context.Context, id auth.Identity, keyID int64, req apikey.UpdateRequest) (apikey.APIKey, error)
	Delete(ctx context.Context, id auth.Identity, keyID int64) error
}

type APIKeysHandler struct {
	svc APIKeyService
}

func NewAPIKeysHandler(svc APIKeyService) *APIKeysHandler {
	return &APIKeysHandler{svc: svc}
}

// ListAPIKeys returns every key with its secret masked.
func (h *APIKeysHandler) ListAPIKeys(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	keys, err := h.svc.List(cctx, who)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"apiKeys": keys})
}

// CreateAPIKey is one of two places the full key is ever returned.
func (h *APIKeysHandler) CreateAPIKey(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	var req apikey.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	k, err := h.svc.Create(cctx, who, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"apiKey": k})
}

func (h *APIKeysHandler) GetFullAPIKey(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "API key")
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	k, err := h.svc.GetFull(cctx, who, id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.Header("Cache-Control", "no-store")
	ctx.JSON(http.StatusOK, gin.H{"apiKey": k})
}

func (h *APIKeysHandler) UpdateAPIKey(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "API key")
	if !ok {
		return
	}

	var req apikey.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	k, err := h.svc.SetActive(cctx, who, id, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"apiKey": k})
}

func (h *APIKeysHandler) DeleteAPIKey(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "API key")
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
