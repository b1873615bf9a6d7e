package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/geocoder89/salestrack/internal/security"
)

type CredentialStore interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Update(ctx context.Context, id int64, changes user.Changes, guard user.RemovalGuard) (user.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(id Identity) (string, time.Time, error)
}

// Session is the outcome of a successful login.
type Session struct {
	User        user.User
	AccessToken string
	ExpiresAt   time.Time
}

type LoginService struct {
	users  CredentialStore
	tokens TokenIssuer
	log    *slog.Logger
}

func NewLoginService(users CredentialStore, tokens TokenIssuer, log *slog.Logger) *LoginService {
	if log == nil {
		log = slog.Default()
	}
	return &LoginService{users: users, tokens: tokens, log: log}
}

var errInvalidCredentials = apperr.Unauthorized("Invalid username or password")

// Login verifies username and password. Unknown users and wrong passwords
// produce the same error.
func (s *LoginService) Login(ctx context.Context, username, password string) (Session, error) {
	found, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Session{}, errInvalidCredentials
		}
		return Session{}, apperr.Internal(err, "Could not log in")
	}

	needsRehash, err := security.VerifyPassword(found.PasswordHash, password)
	if err != nil {
		return Session{}, errInvalidCredentials
	}

	if needsRehash {
		s.upgradePassword(ctx, found, password)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(IdentityOf(found))
	if err != nil {
		return Session{}, apperr.Internal(err, "Could not generate access token")
	}

	return Session{User: found, AccessToken: token, ExpiresAt: expiresAt}, nil
}

// upgradePassword replaces a legacy plaintext password with a bcrypt hash.
// Failure is logged; the login itself still succeeds.
func (s *LoginService) upgradePassword(ctx context.Context, u user.User, plain string) {
	hash, err := security.HashPassword(plain)
	if err != nil {
		s.log.ErrorContext(ctx, "password upgrade hash failed", "user_id", u.ID, "err", err)
		return
	}

	if _, err := s.users.Update(ctx, u.ID, user.Changes{PasswordHash: &hash}, nil); err != nil {
		s.log.ErrorContext(ctx, "password upgrade store failed", "user_id", u.ID, "err", err)
		return
	}

	s.log.InfoContext(ctx, "upgraded legacy password to bcrypt", "user_id", u.ID)
}
