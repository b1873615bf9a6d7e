package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/salestrack/internal/db"
	"github.com/geocoder89/salestrack/internal/domain/apikey"
	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/geocoder89/salestrack/internal/policy"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn, 10)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))

	_, err = pool.Exec(ctx, `TRUNCATE api_keys, leads, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return pool
}

func TestLeadsRepo_Postgres(t *testing.T) {
	pool := setupPool(t)
	repo := NewLeadsRepo(pool, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mk := func(name, company string, at time.Time) lead.Lead {
		l, err := repo.Create(ctx, lead.NewFromCreateRequest(lead.CreateRequest{
			Name: name, Company: company, Email: "x@example.com", Phone: "1",
			Source: lead.SourceWebsite, ProjectName: "Tower 50%",
		}, lead.Attribution{UserID: 7, Name: "Rep"}, at))
		require.NoError(t, err)
		return l
	}

	a := mk("Alice", "Acme", base)
	b := mk("Bob", "Globex", base.Add(time.Hour))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.StatusNew, got.Status)
	assert.Equal(t, int64(7), got.CreatedByID)
	require.NotNil(t, got.UpdatedAt)
	assert.Equal(t, got.CreatedAt, *got.UpdatedAt)

	all, err := repo.List(ctx, lead.DateRange{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)

	from := base.Add(30 * time.Minute)
	windowed, err := repo.List(ctx, lead.DateRange{From: &from})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, b.ID, windowed[0].ID)

	found, err := repo.Search(ctx, lead.SearchCriteria{Keyword: "glob"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, b.ID, found[0].ID)

	literal, err := repo.Search(ctx, lead.SearchCriteria{ProjectName: "50%"})
	require.NoError(t, err)
	assert.Len(t, literal, 2)

	none, err := repo.Search(ctx, lead.SearchCriteria{ProjectName: "5_%"})
	require.NoError(t, err)
	assert.Empty(t, none)

	status := lead.StatusQualified
	updated, err := repo.Update(ctx, a.ID, lead.UpdateRequest{Status: &status}, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, lead.StatusQualified, updated.Status)
	assert.Equal(t, "Alice", updated.Name)
	require.NotNil(t, updated.UpdatedAt)

	_, err = repo.Update(ctx, 9999, lead.UpdateRequest{}, base)
	assert.ErrorIs(t, err, lead.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, a.ID))
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), lead.ErrNotFound)

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUsersRepo_Postgres(t *testing.T) {
	pool := setupPool(t)
	users := NewUsersRepo(pool, nil)
	keys := NewAPIKeysRepo(pool, nil)
	ctx := context.Background()

	admin, err := users.Create(ctx, user.User{Username: "Admin", PasswordHash: "h", Name: "A", Role: user.RoleAdministrator})
	require.NoError(t, err)

	_, err = users.Create(ctx, user.User{Username: "admin", PasswordHash: "h", Name: "B", Role: user.RoleSalesRepresentative})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)

	byName, err := users.GetByUsername(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, byName.ID)

	rep, err := users.Create(ctx, user.User{Username: "rep", PasswordHash: "h", Name: "R", Role: user.RoleSalesRepresentative})
	require.NoError(t, err)

	k, err := keys.Create(ctx, apikey.APIKey{Key: "ltk_abc", Name: "ci", UserID: rep.ID, CreatedAt: 1, IsActive: true})
	require.NoError(t, err)

	_, err = keys.Create(ctx, apikey.APIKey{Key: "ltk_def", Name: "ci", UserID: 9999, CreatedAt: 1, IsActive: true})
	assert.ErrorIs(t, err, user.ErrNotFound)

	require.NoError(t, keys.TouchLastUsed(ctx, k.ID, 42))
	off, err := keys.SetActive(ctx, k.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	require.NotNil(t, off.LastUsed)
	assert.Equal(t, int64(42), *off.LastUsed)

	demote := user.RoleSalesRepresentative
	_, err = users.Update(ctx, admin.ID, user.Changes{Role: &demote}, policy.GuardLastAdministrator)
	assert.ErrorIs(t, err, user.ErrLastAdministrator)

	assert.ErrorIs(t, users.Delete(ctx, admin.ID, policy.GuardLastAdministrator), user.ErrLastAdministrator)

	require.NoError(t, users.Delete(ctx, rep.ID, policy.GuardLastAdministrator))
	_, err = keys.GetByKey(ctx, "ltk_abc")
	assert.ErrorIs(t, err, apikey.ErrNotFound)
}

func TestUsersRepo_ConcurrentAdminRemovalKeepsOne(t *testing.T) {
	pool := setupPool(t)
	users := NewUsersRepo(pool, nil)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"a1", "a2", "a3"} {
		u, err := users.Create(ctx, user.User{Username: name, PasswordHash: "h", Name: name, Role: user.RoleAdministrator})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			if i%2 == 0 {
				errs[i] = users.Delete(ctx, id, policy.GuardLastAdministrator)
				return
			}
			demote := user.RoleSalesManager
			_, errs[i] = users.Update(ctx, id, user.Changes{Role: &demote}, policy.GuardLastAdministrator)
		}(i, id)
	}
	wg.Wait()

	refused := 0
	for _, err := range errs {
		if errors.Is(err, user.ErrLastAdministrator) {
			refused++
		} else {
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 1, refused)

	n, err := users.CountByRole(ctx, user.RoleAdministrator)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
