package auth

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/geocoder89/salestrack/internal/domain/apikey"
	"github.com/geocoder89/salestrack/internal/domain/user"
)

const HeaderAPIKey = "X-API-Key"

type KeyLookup interface {
	GetByKey(ctx context.Context, key string) (apikey.APIKey, error)
	TouchLastUsed(ctx context.Context, id int64, at int64) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

// KeyAuthenticator resolves X-API-Key credentials for the external API.
type KeyAuthenticator struct {
	keys  KeyLookup
	users UserLookup
	now   func() time.Time
}

func NewKeyAuthenticator(keys KeyLookup, users UserLookup) *KeyAuthenticator {
	return &KeyAuthenticator{keys: keys, users: users, now: time.Now}
}

// Authenticate returns the owning user's identity for an active key and
// stamps the key's lastUsed. Unknown, inactive and orphaned keys are all
// reported as unauthorized.
func (a *KeyAuthenticator) Authenticate(ctx context.Context, raw string) (Identity, apikey.APIKey, error) {
	if raw == "" {
		return Identity{}, apikey.APIKey{}, apperr.Unauthorized("API key is required")
	}

	key, err := a.keys.GetByKey(ctx, raw)
	if err != nil {
		if errors.Is(err, apikey.ErrNotFound) {
			return Identity{}, apikey.APIKey{}, apperr.Unauthorized("Invalid API key")
		}
		return Identity{}, apikey.APIKey{}, apperr.Internal(err, "Could not verify API key")
	}

	if !key.IsActive {
		return Identity{}, apikey.APIKey{}, apperr.Unauthorized("API key is inactive")
	}

	owner, err := a.users.GetByID(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Identity{}, apikey.APIKey{}, apperr.Unauthorized("API key owner no longer exists")
		}
		return Identity{}, apikey.APIKey{}, apperr.Internal(err, "Could not verify API key")
	}

	at := a.now().UnixMilli()
	if err := a.keys.TouchLastUsed(ctx, key.ID, at); err != nil {
		return Identity{}, apikey.APIKey{}, apperr.Internal(err, "Could not verify API key")
	}
	key.LastUsed = &at

	return IdentityOf(owner), key, nil
}
