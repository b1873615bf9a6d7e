package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/geocoder89/salestrack/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.usernameTakenLocked(u.Username, 0) {
		return user.User{}, user.ErrUsernameTaken
	}

	r.s.nextID.user++
	u.ID = r.s.nextID.user
	r.s.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) usernameTakenLocked(username string, except int64) bool {
	for id, existing := range r.s.users {
		if id != except && strings.EqualFold(existing.Username, username) {
			return true
		}
	}
	return false
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByUsername(_ context.Context, username string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.s.mu.RLock()
	out := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *UsersRepo) CountByRole(_ context.Context, role user.Role) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.countByRoleLocked(role), nil
}

func (r *UsersRepo) countByRoleLocked(role user.Role) int {
	n := 0
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n
}

// Update applies changes. When the role changes, guard runs under the store
// lock with the current administrator count.
func (r *UsersRepo) Update(_ context.Context, id int64, changes user.Changes, guard user.RemovalGuard) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if changes.Username != nil && r.usernameTakenLocked(*changes.Username, id) {
		return user.User{}, user.ErrUsernameTaken
	}

	if guard != nil && changes.Role != nil && *changes.Role != u.Role {
		if err := guard(u, r.countByRoleLocked(user.RoleAdministrator)); err != nil {
			return user.User{}, err
		}
	}

	u = changes.Apply(u)
	r.s.users[id] = u

	return u, nil
}

// Delete removes the user and its api keys. guard runs under the store lock
// so concurrent removals cannot both pass it.
func (r *UsersRepo) Delete(_ context.Context, id int64, guard user.RemovalGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}

	if guard != nil {
		if err := guard(u, r.countByRoleLocked(user.RoleAdministrator)); err != nil {
			return err
		}
	}

	delete(r.s.users, id)

	for keyID, k := range r.s.keys {
		if k.UserID == id {
			delete(r.s.keys, keyID)
		}
	}

	return nil
}
