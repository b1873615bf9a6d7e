package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/salestrack/internal/domain/lead"
)

type LeadsRepo struct {
	s *Store
}

func NewLeadsRepo() *LeadsRepo {
	return NewStore().Leads()
}

func (r *LeadsRepo) Create(_ context.Context, l lead.Lead) (lead.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextID.lead++
	l.ID = r.s.nextID.lead
	r.s.leads[l.ID] = l

	return l, nil
}

func (r *LeadsRepo) GetByID(_ context.Context, id int64) (lead.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.leads[id]
	if !ok {
		return lead.Lead{}, lead.ErrNotFound
	}
	return l, nil
}

func (r *LeadsRepo) List(_ context.Context, window lead.DateRange) ([]lead.Lead, error) {
	return r.filter(func(l lead.Lead) bool { return window.Contains(l.CreatedAt) }), nil
}

func (r *LeadsRepo) Search(_ context.Context, c lead.SearchCriteria) ([]lead.Lead, error) {
	return r.filter(c.Matches), nil
}

// filter returns matches newest first, ties broken by id.
func (r *LeadsRepo) filter(keep func(lead.Lead) bool) []lead.Lead {
	r.s.mu.RLock()
	out := make([]lead.Lead, 0, len(r.s.leads))
	for _, l := range r.s.leads {
		if keep(l) {
			out = append(out, l)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})

	return out
}

func (r *LeadsRepo) Update(_ context.Context, id int64, req lead.UpdateRequest, at time.Time) (lead.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.leads[id]
	if !ok {
		return lead.Lead{}, lead.ErrNotFound
	}

	l = req.Apply(l, at)
	r.s.leads[id] = l

	return l, nil
}

func (r *LeadsRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.leads[id]; !ok {
		return lead.ErrNotFound
	}
	delete(r.s.leads, id)

	return nil
}

func (r *LeadsRepo) DeleteAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := int64(len(r.s.leads))
	r.s.leads = make(map[int64]lead.Lead)

	return n, nil
}
