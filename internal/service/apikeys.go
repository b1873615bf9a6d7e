package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/domain/apikey"
	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/geocoder89/salestrack/internal/policy"
	"github.com/geocoder89/salestrack/internal/security"
	"github.com/geocoder89/salestrack/internal/validation"
)

type APIKeyRepository interface {
	Create(ctx context.Context, k apikey.APIKey) (apikey.APIKey, error)
	List(ctx context.Context) ([]apikey.APIKey, error)
	GetByID(ctx context.Context, id int64) (apikey.APIKey, error)
	GetByKey(ctx context.Context, key string) (apikey.APIKey, error)
	TouchLastUsed(ctx context.Context, id int64, at int64) error
	SetActive(ctx context.Context, id int64, active bool) (apikey.APIKey, error)
	Delete(ctx context.Context, id int64) error
}

// APIKeyService manages integration keys. Every operation is
// Administrator-only.
type APIKeyService struct {
	repo   APIKeyRepository
	log    *slog.Logger
	now    func() time.Time
	newKey func() (string, error)
}

func NewAPIKeyService(repo APIKeyRepository, log *slog.Logger) *APIKeyService {
	if log == nil {
		log = slog.Default()
	}
	return &APIKeyService{repo: repo, log: log, now: time.Now, newKey: security.NewAPIKey}
}

const adminOnly = "Administrator role required"

// List returns every key with its secret masked.
func (s *APIKeyService) List(ctx context.Context, id auth.Identity) ([]apikey.APIKey, error) {
	if err := policy.CanManageAPIKeys(id).Err(adminOnly); err != nil {
		return nil, err
	}

	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Could not fetch API keys")
	}

	masked := make([]apikey.APIKey, len(keys))
	for i, k := range keys {
		masked[i] = k.Masked()
	}
	return masked, nil
}

// Create issues a new active key. The returned key is unmasked.
func (s *APIKeyService) Create(ctx context.Context, id auth.Identity, req apikey.CreateRequest) (apikey.APIKey, error) {
	if err := policy.CanManageAPIKeys(id).Err(adminOnly); err != nil {
		return apikey.APIKey{}, err
	}

	if err := validation.Struct(req); err != nil {
		return apikey.APIKey{}, err
	}

	raw, err := s.newKey()
	if err != nil {
		return apikey.APIKey{}, apperr.Internal(err, "Could not generate API key")
	}

	created, err := s.repo.Create(ctx, apikey.APIKey{
		Key:       raw,
		Name:      req.Name,
		UserID:    req.UserID,
		CreatedAt: s.now().UnixMilli(),
		IsActive:  true,
	})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apikey.APIKey{}, apperr.Validation("Owner does not exist", map[string]any{
				"fields": []validation.FieldError{{Field: "userId", Rule: "exists", Message: "must reference an existing user"}},
			})
		}
		return apikey.APIKey{}, apperr.Internal(err, "Could not create API key")
	}

	s.log.InfoContext(ctx, "api key created", "api_key_id", created.ID, "owner_id", created.UserID, "by", id.UserID)

	return created, nil
}

func (s *APIKeyService) GetFull(ctx context.Context, id auth.Identity, keyID int64) (apikey.APIKey, error) {
	if err := policy.CanManageAPIKeys(id).Err(adminOnly); err != nil {
		return apikey.APIKey{}, err
	}

	k, err := s.repo.GetByID(ctx, keyID)
	if err != nil {
		return apikey.APIKey{}, mapKeyErr(err, "Could not fetch API key")
	}

	s.log.InfoContext(ctx, "api key revealed", "api_key_id", keyID, "by", id.UserID)

	return k, nil
}

func (s *APIKeyService) SetActive(ctx context.Context, id auth.Identity, keyID int64, req apikey.UpdateRequest) (apikey.APIKey, error) {
	if err := policy.CanManageAPIKeys(id).Err(adminOnly); err != nil {
		return apikey.APIKey{}, err
	}

	if err := validation.Struct(req); err != nil {
		return apikey.APIKey{}, err
	}

	k, err := s.repo.SetActive(ctx, keyID, *req.IsActive)
	if err != nil {
		return apikey.APIKey{}, mapKeyErr(err, "Could not update API key")
	}

	s.log.InfoContext(ctx, "api key toggled", "api_key_id", keyID, "active", k.IsActive, "by", id.UserID)

	return k.Masked(), nil
}

func (s *APIKeyService) Delete(ctx context.Context, id auth.Identity, keyID int64) error {
	if err := policy.CanManageAPIKeys(id).Err(adminOnly); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, keyID); err != nil {
		return mapKeyErr(err, "Could not delete API key")
	}

	s.log.InfoContext(ctx, "api key deleted", "api_key_id", keyID, "by", id.UserID)

	return nil
}

func mapKeyErr(err error, message string) error {
	if errors.Is(err, apikey.ErrNotFound) {
		return apperr.NotFound("API key not found")
	}
	return apperr.Internal(err, message)
}
