package middlewares

import (
	"errors"
	"net/http"

	"github.com/geocoder89/salestrack/internal/actorctx"
	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/http/handlers"
	"github.com/geocoder89/salestrack/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type IdentityResolver interface {
	Resolve(req *http.Request) (auth.Identity, auth.Method, error)
}

type AuthMiddleware struct {
	resolver IdentityResolver
	prom     *observability.Prom
}

func NewAuthMiddleware(resolver IdentityResolver, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, prom: prom}
}

// RequireAuth resolves the dashboard caller and rejects the request when no
// identity can be established.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, method, err := m.resolver.Resolve(c.Request)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrNoCredentials):
				m.prom.ObserveAuth("dashboard", "rejected")
				handlers.RespondUnAuthorized(c, "Missing or invalid Authorization header")
			case errors.Is(err, auth.ErrMalformedIdentity):
				m.prom.ObserveAuth("dashboard", "rejected")
				handlers.RespondUnAuthorized(c, "Malformed identity headers")
			case errors.Is(err, auth.ErrUnknownUser):
				m.prom.ObserveAuth("dashboard", "rejected")
				handlers.RespondUnAuthorized(c, "Account no longer exists")
			case errors.Is(err, auth.ErrInvalidToken):
				m.prom.ObserveAuth("dashboard", "rejected")
				handlers.RespondUnAuthorized(c, "Invalid or expired access token")
			default:
				m.prom.ObserveAuth("dashboard", "error")
				handlers.RespondAppError(c, err)
			}
			return
		}

		m.prom.ObserveAuth(string(method), "ok")

		setIdentity(c, id)
		c.Set(CtxAuthMethod, string(method))

		c.Next()
	}
}

func setIdentity(c *gin.Context, id auth.Identity) {
	c.Set(CtxUserID, id.UserID)
	c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))
}
