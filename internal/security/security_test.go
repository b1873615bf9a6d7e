package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	require.True(t, IsHashed(hash))

	tests := []struct {
		name       string
		stored     string
		plain      string
		wantErr    bool
		wantRehash bool
	}{
		{name: "bcrypt match", stored: hash, plain: "s3cret!"},
		{name: "bcrypt mismatch", stored: hash, plain: "nope", wantErr: true},
		{name: "legacy plaintext match", stored: "admin123", plain: "admin123", wantRehash: true},
		{name: "legacy plaintext mismatch", stored: "admin123", plain: "admin124", wantErr: true},
		{name: "empty stored never matches", stored: "", plain: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rehash, err := VerifyPassword(tt.stored, tt.plain)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPasswordMismatch)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantRehash, rehash)
		})
	}
}

func TestNewAPIKeyIsUnique(t *testing.T) {
	a, err := NewAPIKey()
	require.NoError(t, err)
	b, err := NewAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "ltk_"))
	assert.Len(t, a, len("ltk_")+64)
	assert.NotEqual(t, a, b)
}
