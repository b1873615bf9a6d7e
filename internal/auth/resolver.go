package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/geocoder89/salestrack/internal/domain/user"
)

var (
	ErrNoCredentials     = errors.New("no credentials presented")
	ErrInvalidToken      = errors.New("invalid or expired access token")
	ErrMalformedIdentity = errors.New("malformed identity headers")
	ErrUnknownUser       = errors.New("token subject no longer exists")
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
	HeaderUserName = "X-User-Name"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*Claims, error)
}

// Method records how an identity was established.
type Method string

const (
	MethodBearer   Method = "bearer"
	MethodHeaders  Method = "legacy_headers"
	MethodFallback Method = "dev_fallback"
)

type ResolverOptions struct {
	// LegacyHeaders accepts the unauthenticated X-User-* headers. Only for
	// trusted deployments behind an authenticating proxy.
	LegacyHeaders bool

	// Fallback is used when a request carries no credentials. Leave nil
	// outside local development.
	Fallback *Identity

	// Users, when set, re-reads the token subject on every request so a
	// demotion, rename or deletion applies before the token expires.
	Users UserLookup
}

// Resolver establishes the dashboard caller for a request.
type Resolver struct {
	tokens TokenVerifier
	opts   ResolverOptions
	log    *slog.Logger
}

func NewResolver(tokens TokenVerifier, opts ResolverOptions, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{tokens: tokens, opts: opts, log: log}
}

func (r *Resolver) Resolve(req *http.Request) (Identity, Method, error) {
	authHeader := req.Header.Get("Authorization")
	if authHeader != "" {
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return Identity{}, "", ErrInvalidToken
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" || r.tokens == nil {
			return Identity{}, "", ErrInvalidToken
		}

		claims, err := r.tokens.VerifyAccessToken(raw)
		if err != nil {
			return Identity{}, "", ErrInvalidToken
		}

		id, err := r.current(req.Context(), claims.Identity())
		if err != nil {
			return Identity{}, "", err
		}

		return id, MethodBearer, nil
	}

	if r.opts.LegacyHeaders && req.Header.Get(HeaderUserID) != "" {
		id, err := identityFromHeaders(req.Header)
		if err != nil {
			return Identity{}, "", err
		}
		return id, MethodHeaders, nil
	}

	if r.opts.Fallback != nil {
		r.log.WarnContext(req.Context(), "using development fallback identity",
			"user_id", r.opts.Fallback.UserID,
			"path", req.URL.Path,
		)
		return *r.opts.Fallback, MethodFallback, nil
	}

	return Identity{}, "", ErrNoCredentials
}

// current refreshes a token identity from the user store.
func (r *Resolver) current(ctx context.Context, id Identity) (Identity, error) {
	if r.opts.Users == nil {
		return id, nil
	}

	u, err := r.opts.Users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Identity{}, ErrUnknownUser
		}
		return Identity{}, fmt.Errorf("load token subject: %w", err)
	}

	return IdentityOf(u), nil
}

func identityFromHeaders(h http.Header) (Identity, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(h.Get(HeaderUserID)), 10, 64)
	if err != nil || id <= 0 {
		return Identity{}, ErrMalformedIdentity
	}

	role := user.Role(strings.TrimSpace(h.Get(HeaderUserRole)))
	if !role.IsValid() {
		return Identity{}, ErrMalformedIdentity
	}

	name := h.Get(HeaderUserName)
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if strings.TrimSpace(name) == "" {
		return Identity{}, ErrMalformedIdentity
	}

	return Identity{UserID: id, Role: role, Name: name}, nil
}
