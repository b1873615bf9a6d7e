package handlers

import (
	"net/http"
	"strconv"

	"github.com/geocoder89/salestrack/internal/config"
	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/gin-gonic/gin"
)

// ExternalHandler serves the versioned API used by integrations. Callers are
// authenticated by API key and act as the key's owner.
type ExternalHandler struct {
	svc LeadService
}

func NewExternalHandler(svc LeadService) *ExternalHandler {
	return &ExternalHandler{svc: svc}
}

type searchPage struct {
	Data  []lead.Lead `json:"data"`
	Total int         `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// SearchLeads pages over the search result. Without a limit the whole result
// is one page.
func (h *ExternalHandler) SearchLeads(ctx *gin.Context) {
	page, ok := positiveQueryInt(ctx, "page", 1)
	if !ok {
		return
	}

	limit, ok := positiveQueryInt(ctx, "limit", 0)
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	leads, err := h.svc.Search(cctx, searchCriteria(ctx))
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	total := len(leads)
	if limit == 0 {
		limit = total
	}

	start, end := pageBounds(page, limit, total)

	ctx.JSON(http.StatusOK, searchPage{
		Data:  leads[start:end],
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (h *ExternalHandler) CreateLead(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	var req lead.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	l, err := h.svc.Create(cctx, who, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"lead": l})
}

func (h *ExternalHandler) UpdateLead(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "lead")
	if !ok {
		return
	}

	var req lead.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	l, err := h.svc.Update(cctx, who, id, req)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"lead": l})
}

// pageBounds returns the slice bounds of page within total items. Pages past
// the end are empty; the offset is only computed once it is known to fit.
func pageBounds(page, limit, total int) (start, end int) {
	if limit <= 0 {
		return 0, total
	}

	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	if page-1 >= pages {
		return total, total
	}

	start = (page - 1) * limit
	return start, min(start+limit, total)
}

func positiveQueryInt(ctx *gin.Context, name string, def int) (int, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		RespondBadRequest(ctx, "Invalid "+name, gin.H{
			"fields": []FieldError{{Field: name, Rule: "min", Param: "1", Message: "must be a positive integer"}},
		})
		return 0, false
	}

	return n, true
}
