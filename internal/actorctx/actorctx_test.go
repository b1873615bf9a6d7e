package actorctx

import (
	"context"
	"testing"

	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/domain/user"
)

func TestIdentityRoundTrip(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Fatalf("empty context should carry no identity")
	}

	want := auth.Identity{UserID: 4, Role: user.RoleSalesManager, Name: "Mgr"}
	got, ok := IdentityFrom(WithIdentity(context.Background(), want))
	if !ok || got != want {
		t.Fatalf("got %+v (ok=%v), want %+v", got, ok, want)
	}

	if _, ok := IdentityFrom(WithIdentity(context.Background(), auth.Identity{})); ok {
		t.Fatalf("zero identity should not count as present")
	}
}
