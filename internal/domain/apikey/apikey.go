package apikey

import "errors"

// APIKey is an opaque credential owned by a user. Timestamps are epoch
// milliseconds.
type APIKey struct {
	ID        int64  `json:"id"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	UserID    int64  `json:"userId"`
	CreatedAt int64  `json:"createdAt"`
	LastUsed  *int64 `json:"lastUsed"`
	IsActive  bool   `json:"isActive"`
}

var ErrNotFound = errors.New("api key not found")

const maskedPrefixLen = 8

// Masked returns a copy safe for listings: only a short prefix of the key
// survives.
func (k APIKey) Masked() APIKey {
	if len(k.Key) > maskedPrefixLen {
		k.Key = k.Key[:maskedPrefixLen] + "…"
	}
	return k
}

type CreateRequest struct {
	Name   string `json:"name" validate:"required,max=120"`
	UserID int64  `json:"userId" validate:"required,min=1"`
}

type UpdateRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
