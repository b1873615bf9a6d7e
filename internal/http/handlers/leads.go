package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/config"
	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/geocoder89/salestrack/internal/metrics"
	"github.com/gin-gonic/gin"
)

type LeadService interface {
	Create(ctx context.Context, id auth.Identity, req lead.CreateRequest) (lead.Lead, error)
	Get(ctx context.Context, id int64) (lead.Lead, error)
	Update(ctx context.Context, id auth.Identity, leadID int64, req lead.UpdateRequest) (lead.Lead, error)
	Delete(ctx context.Context, id auth.Identity, leadID int64) error
	DeleteAll(ctx context.Context, id auth.Identity) (int64, error)
	Search(ctx context.Context, c lead.SearchCriteria) ([]lead.Lead, error)
	SearchWithin(ctx context.Context, c lead.SearchCriteria, window lead.DateRange) ([]lead.Lead, error)
	ListByDateRange(ctx context.Context, window lead.DateRange) ([]lead.Lead, error)
	Metrics(ctx context.Context, window lead.DateRange) (metrics.Report, error)
}

const storeTimeout = 3 * time.Second

type LeadsHandler struct {
	svc LeadService
}

func NewLeadsHandler(svc LeadService) *LeadsHandler {
	return &LeadsHandler{svc: svc}
}

// ListLeads serves GET /leads. fromDate/toDate bound createdAt; any search
// parameter additionally filters by keyword or fields.
func (h *LeadsHandler) ListLeads(ctx *gin.Context) {
	window, ok := dateRange(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	var (
		leads []lead.Lead
		err   error
	)

	if c := searchCriteria(ctx); !c.IsEmpty() {
		leads, err = h.svc.SearchWithin(cctx, c, window)
	} else {
		leads, err = h.svc.ListByDateRange(cctx, window)
	}

	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"leads": leads})
}

func (h *LeadsHandler) GetLead(ctx *gin.Context) {
	id, ok := pathID(ctx, "lead")
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	l, err := h.svc.Get(cctx, id)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"lead": l})
}

func (h *LeadsHandler) CreateLead(ctx *gin.Context) {
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

func (h *LeadsHandler) UpdateLead(ctx *gin.Context) {
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

func (h *LeadsHandler) DeleteLead(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx, "lead")
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

func (h *LeadsHandler) DeleteAllLeads(ctx *gin.Context) {
	who, ok := caller(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	n, err := h.svc.DeleteAll(cctx, who)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": n})
}

// GetMetrics serves the dashboard aggregates for leads created inside
// fromDate/toDate.
func (h *LeadsHandler) GetMetrics(ctx *gin.Context) {
	window, ok := dateRange(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithRequestTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	report, err := h.svc.Metrics(cctx, window)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, report)
}
