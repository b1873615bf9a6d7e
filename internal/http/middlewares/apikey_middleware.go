package middlewares

import (
	"context"

	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/domain/apikey"
	"github.com/geocoder89/salestrack/internal/http/handlers"
	"github.com/geocoder89/salestrack/internal/observability"
	"github.com/gin-gonic/gin"
)

type KeyAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (auth.Identity, apikey.APIKey, error)
}

type APIKeyMiddleware struct {
	keys KeyAuthenticator
	prom *observability.Prom
}

func NewAPIKeyMiddleware(keys KeyAuthenticator, prom *observability.Prom) *APIKeyMiddleware {
	return &APIKeyMiddleware{keys: keys, prom: prom}
}

// RequireAPIKey authenticates X-API-Key and runs the request as the key's
// owner.
func (m *APIKeyMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, key, err := m.keys.Authenticate(c.Request.Context(), c.GetHeader(auth.HeaderAPIKey))
		if err != nil {
			result := "rejected"
			if apperr.CodeOf(err) == apperr.CodeInternal {
				result = "error"
			}
			m.prom.ObserveAuth("api_key", result)

			handlers.RespondAppError(c, err)
			return
		}

		m.prom.ObserveAuth("api_key", "ok")

		setIdentity(c, id)
		c.Set(CtxAuthMethod, "api_key")
		c.Set(CtxAPIKeyID, key.ID)

		c.Next()
	}
}
