package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/salestrack/internal/domain/apikey"
	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/geocoder89/salestrack/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadsRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewLeadsRepo()

	created, err := repo.Create(ctx, lead.Lead{Name: "Somchai", Status: lead.StatusNew, CreatedAt: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	status := lead.StatusQualified
	updated, err := repo.Update(ctx, created.ID, lead.UpdateRequest{Status: &status}, time.UnixMilli(2000))
	require.NoError(t, err)
	assert.Equal(t, lead.StatusQualified, updated.Status)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, int64(2000), *updated.UpdatedAt)
	assert.Equal(t, "Somchai", updated.Name)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, lead.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), lead.ErrNotFound)

	_, err = repo.Update(ctx, 404, lead.UpdateRequest{}, time.Now())
	assert.ErrorIs(t, err, lead.ErrNotFound)
}

func TestLeadsRepo_ListNewestFirstAndDateRange(t *testing.T) {
	ctx := context.Background()
	repo := NewLeadsRepo()

	for _, ts := range []int64{1000, 3000, 2000} {
		_, err := repo.Create(ctx, lead.Lead{Name: "x", CreatedAt: ts})
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, lead.DateRange{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{3000, 2000, 1000}, []int64{all[0].CreatedAt, all[1].CreatedAt, all[2].CreatedAt})

	from := time.UnixMilli(2000)
	to := time.UnixMilli(3000)
	ranged, err := repo.List(ctx, lead.DateRange{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, ranged, 2, "bounds are inclusive")

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	all, err = repo.List(ctx, lead.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUsersRepo_UsernameUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Users()

	_, err := repo.Create(ctx, user.User{Username: "malee", Role: user.RoleSalesManager})
	require.NoError(t, err)

	_, err = repo.Create(ctx, user.User{Username: "Malee", Role: user.RoleSalesRepresentative})
	assert.ErrorIs(t, err, user.ErrUsernameTaken)

	other, err := repo.Create(ctx, user.User{Username: "niran", Role: user.RoleSalesRepresentative})
	require.NoError(t, err)

	taken := "malee"
	_, err = repo.Update(ctx, other.ID, user.Changes{Username: &taken}, nil)
	assert.ErrorIs(t, err, user.ErrUsernameTaken)

	found, err := repo.GetByUsername(ctx, "MALEE")
	require.NoError(t, err)
	assert.Equal(t, "malee", found.Username)
}

func TestUsersRepo_DeleteCascadesAPIKeys(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	u, err := store.Users().Create(ctx, user.User{Username: "rep", Role: user.RoleSalesRepresentative})
	require.NoError(t, err)

	k, err := store.APIKeys().Create(ctx, apikey.APIKey{Key: "ltk_abc", UserID: u.ID, IsActive: true})
	require.NoError(t, err)

	require.NoError(t, store.Users().Delete(ctx, u.ID, policy.GuardLastAdministrator))

	_, err = store.APIKeys().GetByID(ctx, k.ID)
	assert.ErrorIs(t, err, apikey.ErrNotFound)

	_, err = store.APIKeys().Create(ctx, apikey.APIKey{Key: "ltk_def", UserID: u.ID})
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_LastAdministratorGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Users()

	a, err := repo.Create(ctx, user.User{Username: "admin-a", Role: user.RoleAdministrator})
	require.NoError(t, err)

	demote := user.RoleSalesManager
	_, err = repo.Update(ctx, a.ID, user.Changes{Role: &demote}, policy.GuardLastAdministrator)
	assert.ErrorIs(t, err, user.ErrLastAdministrator)

	assert.ErrorIs(t, repo.Delete(ctx, a.ID, policy.GuardLastAdministrator), user.ErrLastAdministrator)

	b, err := repo.Create(ctx, user.User{Username: "admin-b", Role: user.RoleAdministrator})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, a.ID, policy.GuardLastAdministrator))
	assert.ErrorIs(t, repo.Delete(ctx, b.ID, policy.GuardLastAdministrator), user.ErrLastAdministrator)
}

func TestUsersRepo_ConcurrentAdminRemovalKeepsOne(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Users()

	ids := make([]int64, 0, 5)
	for _, name := range []string{"a1", "a2", "a3", "a4", "a5"} {
		u, err := repo.Create(ctx, user.User{Username: name, Role: user.RoleAdministrator})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_ = repo.Delete(ctx, id, policy.GuardLastAdministrator)
		}(id)
	}
	wg.Wait()

	n, err := repo.CountByRole(ctx, user.RoleAdministrator)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAPIKeysRepo_TouchAndToggle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	u, err := store.Users().Create(ctx, user.User{Username: "owner", Role: user.RoleAdministrator})
	require.NoError(t, err)

	k, err := store.APIKeys().Create(ctx, apikey.APIKey{Key: "ltk_123", Name: "crm", UserID: u.ID, IsActive: true})
	require.NoError(t, err)

	require.NoError(t, store.APIKeys().TouchLastUsed(ctx, k.ID, 4242))

	got, err := store.APIKeys().GetByKey(ctx, "ltk_123")
	require.NoError(t, err)
	require.NotNil(t, got.LastUsed)
	assert.Equal(t, int64(4242), *got.LastUsed)

	off, err := store.APIKeys().SetActive(ctx, k.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	require.NoError(t, store.APIKeys().Delete(ctx, k.ID))
	assert.ErrorIs(t, store.APIKeys().Delete(ctx, k.ID), apikey.ErrNotFound)
}
