package security

import (
	"crypto/rand"
	"encoding/hex"
)

const apiKeyPrefix = "ltk_"

// NewAPIKey returns an unguessable key: a fixed prefix plus 32 random bytes
// hex encoded.
func NewAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}
