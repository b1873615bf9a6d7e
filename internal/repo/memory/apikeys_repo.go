package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/salestrack/internal/domain/apikey"
	"github.com/geocoder89/salestrack/internal/domain/user"
)

type APIKeysRepo struct {
	s *Store
}

func (r *APIKeysRepo) Create(_ context.Context, k apikey.APIKey) (apikey.APIKey, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[k.UserID]; !ok {
		return apikey.APIKey{}, user.ErrNotFound
	}

	r.s.nextID.key++
	k.ID = r.s.nextID.key
	r.s.keys[k.ID] = k

	return k, nil
}

func (r *APIKeysRepo) List(_ context.Context) ([]apikey.APIKey, error) {
	r.s.mu.RLock()
	out := make([]apikey.APIKey, 0, len(r.s.keys))
	for _, k := range r.s.keys {
		out = append(out, k)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *APIKeysRepo) GetByID(_ context.Context, id int64) (apikey.APIKey, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	k, ok := r.s.keys[id]
	if !ok {
		return apikey.APIKey{}, apikey.ErrNotFound
	}
	return k, nil
}

func (r *APIKeysRepo) GetByKey(_ context.Context, raw string) (apikey.APIKey, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, k := range r.s.keys {
		if k.Key == raw {
			return k, nil
		}
	}
	return apikey.APIKey{}, apikey.ErrNotFound
}

func (r *APIKeysRepo) TouchLastUsed(_ context.Context, id int64, at int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k, ok := r.s.keys[id]
	if !ok {
		return apikey.ErrNotFound
	}
	k.LastUsed = &at
	r.s.keys[id] = k

	return nil
}

func (r *APIKeysRepo) SetActive(_ context.Context, id int64, active bool) (apikey.APIKey, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k, ok := r.s.keys[id]
	if !ok {
		return apikey.APIKey{}, apikey.ErrNotFound
	}
	k.IsActive = active
	r.s.keys[id] = k

	return k, nil
}

func (r *APIKeysRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.keys[id]; !ok {
		return apikey.ErrNotFound
	}
	delete(r.s.keys, id)

	return nil
}
