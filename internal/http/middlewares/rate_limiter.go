package middlewares

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/geocoder89/salestrack/internal/http/handlers"
	"github.com/geocoder89/salestrack/internal/observability"
	"github.com/geocoder89/salestrack/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimit enforces limiter for the scope derived by keyFn. When the
// limiter's store is unreachable the request is let through and the failure
// logged; availability of the API wins over the limit.
func RateLimit(limiter ratelimit.Limiter, keyFn func(*gin.Context) string, prom *observability.Prom, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = KeyByIP(c)
		}

		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.WarnContext(c.Request.Context(), "rate limiter unavailable", "err", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining(), 10))

		if !d.Allowed {
			retryAfter := int64(math.Ceil(d.RetryAfter.Seconds()))
			if retryAfter < 0 {
				retryAfter = 0
			}

			prom.ObserveRateLimited(c.FullPath())

			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))

			handlers.RespondError(c, http.StatusTooManyRequests, string(apperr.CodeRateLimit),
				"Too many requests. Please try again shortly.", nil)
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

// KeyByAPIKey scopes limits to the authenticated API key; it must run after
// RequireAPIKey.
func KeyByAPIKey(c *gin.Context) string {
	if v, ok := c.Get(CtxAPIKeyID); ok {
		return fmt.Sprintf("key:%v", v)
	}
	return ""
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
