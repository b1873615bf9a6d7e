package handlers

import (
	"strconv"

	"github.com/geocoder89/salestrack/internal/actorctx"
	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/gin-gonic/gin"
)

// pathID parses the :id segment, answering 400 itself when it is not a
// positive integer.
func pathID(ctx *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid "+what+" ID", gin.H{
			"fields": []FieldError{{Field: "id", Rule: "id", Message: "must be a positive integer"}},
		})
		return 0, false
	}
	return id, true
}

// caller returns the identity established by the auth middleware.
func caller(ctx *gin.Context) (auth.Identity, bool) {
	id, ok := actorctx.IdentityFrom(ctx.Request.Context())
	if !ok {
		RespondUnAuthorized(ctx, "Authentication required")
		return auth.Identity{}, false
	}
	return id, true
}

func dateRange(ctx *gin.Context) (lead.DateRange, bool) {
	var (
		window lead.DateRange
		fields []FieldError
	)

	if raw := ctx.Query("fromDate"); raw != "" {
		from, err := lead.ParseBound(raw, false)
		if err != nil {
			fields = append(fields, FieldError{Field: "fromDate", Rule: "date", Message: "must be an ISO-8601 date or timestamp"})
		}
		window.From = from
	}

	if raw := ctx.Query("toDate"); raw != "" {
		to, err := lead.ParseBound(raw, true)
		if err != nil {
			fields = append(fields, FieldError{Field: "toDate", Rule: "date", Message: "must be an ISO-8601 date or timestamp"})
		}
		window.To = to
	}

	if len(fields) > 0 {
		RespondBadRequest(ctx, "Invalid date range", gin.H{"fields": fields})
		return lead.DateRange{}, false
	}

	return window, true
}

func searchCriteria(ctx *gin.Context) lead.SearchCriteria {
	return lead.SearchCriteria{
		Keyword:             ctx.Query("keyword"),
		Name:                ctx.Query("name"),
		ProjectName:         ctx.Query("projectName"),
		EndUserOrganization: ctx.Query("endUserOrganization"),
		Company:             ctx.Query("company"),
		Product:             ctx.Query("product"),
	}
}
