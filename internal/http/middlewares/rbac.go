package middlewares

import (
	"github.com/geocoder89/salestrack/internal/actorctx"
	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/geocoder89/salestrack/internal/http/handlers"
	"github.com/geocoder89/salestrack/internal/policy"
	"github.com/gin-gonic/gin"
)

// RequireMinRole admits callers whose role is at least the lowest of
// required. The services repeat the check; this keeps unauthorised traffic
// away from the store.
func RequireMinRole(required ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := actorctx.IdentityFrom(c.Request.Context())

		if !ok {
			handlers.RespondUnAuthorized(c, "Missing identity context")
			return
		}

		if !policy.HasMinimumRole(id, required...) {
			handlers.RespondAppError(c, policy.Decision{Reason: policy.ReasonInsufficientRole}.Err("Insufficient role"))
			return
		}

		c.Next()
	}
}
