package actorctx

import (
	"context"

	"github.com/geocoder89/salestrack/internal/auth"
)

type identityKey struct{}

// WithIdentity records the caller a request runs on behalf of.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	v, ok := ctx.Value(identityKey{}).(auth.Identity)

	return v, ok && !v.IsZero()
}
