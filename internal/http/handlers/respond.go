package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, string(apperr.CodeValidation), message, details)
}

func RespondUnAuthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, string(apperr.CodeUnauthorized), message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, string(apperr.CodeNotFound), message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, string(apperr.CodeInternal), message, nil)
}

// RespondAppError writes err using the status and code of its apperr
// classification. Anything unclassified is a 500 and the cause is logged,
// never echoed.
func RespondAppError(ctx *gin.Context, err error) {
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Internal(err, "")
	}

	meta := apperr.MetadataFor(ae.Code())

	message := ae.Message()
	if message == "" {
		message = meta.PublicMessage
	}

	var details interface{}
	if meta.DetailsAllowed {
		details = ae.Details()
		if reason := ae.Reason(); reason != "" {
			details = gin.H{"reason": reason}
		}
	}

	if ae.Code() == apperr.CodeInternal {
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
			"route", ctx.FullPath(),
			"err", err,
		)
	}

	RespondError(ctx, meta.HTTPStatus, string(ae.Code()), message, details)
}
