// Package memory is an in-process store used for local development and
// tests. It mirrors the postgres repositories' behaviour, including the
// api key cascade on user removal.
package memory

import (
	"sync"

	"github.com/geocoder89/salestrack/internal/domain/apikey"
	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/geocoder89/salestrack/internal/domain/user"
)

type Store struct {
	mu sync.RWMutex

	leads  map[int64]lead.Lead
	users  map[int64]user.User
	keys   map[int64]apikey.APIKey
	nextID struct {
		lead, user, key int64
	}
}

func NewStore() *Store {
	return &Store{
		leads: make(map[int64]lead.Lead),
		users: make(map[int64]user.User),
		keys:  make(map[int64]apikey.APIKey),
	}
}

func (s *Store) Leads() *LeadsRepo {
	return &LeadsRepo{s: s}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) APIKeys() *APIKeysRepo {
	return &APIKeysRepo{s: s}
}
