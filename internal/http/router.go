package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/config"
	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/geocoder89/salestrack/internal/http/handlers"
	"github.com/geocoder89/salestrack/internal/http/middlewares"
	"github.com/geocoder89/salestrack/internal/observability"
	"github.com/geocoder89/salestrack/internal/ratelimit"
	"github.com/geocoder89/salestrack/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Repositories is the storage a router is built over: postgres in
// production, the in-memory store for tests and STORAGE=memory.
type Repositories struct {
	Leads   service.LeadRepository
	Users   service.UserRepository
	APIKeys service.APIKeyRepository

	// Ping backs /readyz. nil means always ready.
	Ping func(ctx context.Context) error
}

type Deps struct {
	Repos Repositories

	// Limiter guards the external API per key. Defaults to an in-process
	// limiter.
	Limiter ratelimit.Limiter

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// Fallback is the development identity for credential-less requests.
	Fallback *auth.Identity
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware("salestrack"))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))

	// health
	h := handlers.NewHealthHandler(deps.Repos.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics/prometheus", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// wire up services
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())

	leadSvc := service.NewLeadService(deps.Repos.Leads, log)
	userSvc := service.NewUserService(deps.Repos.Users, log)
	keySvc := service.NewAPIKeyService(deps.Repos.APIKeys, log)
	loginSvc := auth.NewLoginService(deps.Repos.Users, tokens, log)

	resolver := auth.NewResolver(tokens, auth.ResolverOptions{
		LegacyHeaders: cfg.AuthLegacyHeaders,
		Fallback:      deps.Fallback,
		Users:         deps.Repos.Users,
	}, log)

	authMW := middlewares.NewAuthMiddleware(resolver, deps.Prom)
	keyMW := middlewares.NewAPIKeyMiddleware(auth.NewKeyAuthenticator(deps.Repos.APIKeys, deps.Repos.Users), deps.Prom)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(cfg.APIRateLimit, cfg.APIRateWindow)
	}

	// Wire up handlers
	authHandler := handlers.NewAuthHandler(loginSvc, deps.Prom)
	leadsHandler := handlers.NewLeadsHandler(leadSvc)
	usersHandler := handlers.NewUsersHandler(userSvc)
	keysHandler := handlers.NewAPIKeysHandler(keySvc)
	externalHandler := handlers.NewExternalHandler(leadSvc)

	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())

	login := []gin.HandlerFunc{}
	if cfg.LoginRateLimit > 0 {
		loginLimiter := ratelimit.NewMemoryLimiter(cfg.LoginRateLimit, time.Minute)
		login = append(login, middlewares.RateLimit(loginLimiter, middlewares.KeyByIP, deps.Prom, log))
	}
	api.POST("/login", append(login, authHandler.Login)...)

	// dashboard
	dash := api.Group("")
	dash.Use(authMW.RequireAuth())

	dash.GET("/me", authHandler.Me)

	dash.GET("/leads", leadsHandler.ListLeads)
	dash.POST("/leads", leadsHandler.CreateLead)
	dash.GET("/leads/:id", leadsHandler.GetLead)
	dash.PATCH("/leads/:id", leadsHandler.UpdateLead)
	dash.DELETE("/leads/:id", leadsHandler.DeleteLead)
	dash.DELETE("/leads", middlewares.RequireMinRole(user.RoleAdministrator), leadsHandler.DeleteAllLeads)

	dash.GET("/metrics", leadsHandler.GetMetrics)

	dash.GET("/users", middlewares.RequireMinRole(user.RoleSalesManager), usersHandler.ListUsers)
	dash.POST("/users", middlewares.RequireMinRole(user.RoleAdministrator), usersHandler.CreateUser)
	dash.GET("/users/:id", usersHandler.GetUser)
	// self-service profile edits reach the service, which decides per field
	dash.PATCH("/users/:id", usersHandler.UpdateUser)
	dash.DELETE("/users/:id", middlewares.RequireMinRole(user.RoleAdministrator), usersHandler.DeleteUser)

	keys := dash.Group("/api-keys")
	keys.Use(middlewares.RequireMinRole(user.RoleAdministrator))
	keys.GET("", keysHandler.ListAPIKeys)
	keys.POST("", keysHandler.CreateAPIKey)
	keys.GET("/:id/full", keysHandler.GetFullAPIKey)
	keys.PATCH("/:id", keysHandler.UpdateAPIKey)
	keys.DELETE("/:id", keysHandler.DeleteAPIKey)

	// external, API key authenticated
	v1 := api.Group("/v1")
	v1.Use(keyMW.RequireAPIKey())
	v1.Use(middlewares.RateLimit(limiter, middlewares.KeyByAPIKey, deps.Prom, log))

	v1.GET("/leads/search", externalHandler.SearchLeads)
	v1.POST("/leads", externalHandler.CreateLead)
	v1.PATCH("/leads/:id", externalHandler.UpdateLead)

	return r
}
