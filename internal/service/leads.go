package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/geocoder89/salestrack/internal/metrics"
	"github.com/geocoder89/salestrack/internal/policy"
	"github.com/geocoder89/salestrack/internal/validation"
)

type LeadRepository interface {
	Create(ctx context.Context, l lead.Lead) (lead.Lead, error)
	GetByID(ctx context.Context, id int64) (lead.Lead, error)
	List(ctx context.Context, window lead.DateRange) ([]lead.Lead, error)
	Search(ctx context.Context, c lead.SearchCriteria) ([]lead.Lead, error)
	Update(ctx context.Context, id int64, req lead.UpdateRequest, at time.Time) (lead.Lead, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
}

type LeadService struct {
	repo LeadRepository
	log  *slog.Logger
	now  func() time.Time
}

func NewLeadService(repo LeadRepository, log *slog.Logger) *LeadService {
	if log == nil {
		log = slog.Default()
	}
	return &LeadService{repo: repo, log: log, now: time.Now}
}

// Create validates req and attributes the new lead to id, whatever the
// request body claims.
func (s *LeadService) Create(ctx context.Context, id auth.Identity, req lead.CreateRequest) (lead.Lead, error) {
	if err := validation.Struct(req); err != nil {
		return lead.Lead{}, err
	}

	l := lead.NewFromCreateRequest(req, lead.Attribution{UserID: id.UserID, Name: id.Name}, s.now())

	created, err := s.repo.Create(ctx, l)
	if err != nil {
		return lead.Lead{}, apperr.Internal(err, "Could not create lead")
	}

	s.log.InfoContext(ctx, "lead created", "lead_id", created.ID, "user_id", id.UserID)

	return created, nil
}

func (s *LeadService) Get(ctx context.Context, id int64) (lead.Lead, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return lead.Lead{}, mapLeadErr(err, "Could not fetch lead")
	}
	return l, nil
}

// Update checks existence, then ownership, then the patch itself.
func (s *LeadService) Update(ctx context.Context, id auth.Identity, leadID int64, req lead.UpdateRequest) (lead.Lead, error) {
	existing, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		return lead.Lead{}, mapLeadErr(err, "Could not update lead")
	}

	decision := policy.CanMutateLead(id, existing)
	if !decision.Allowed {
		s.log.WarnContext(ctx, "lead update denied", "lead_id", leadID, "user_id", id.UserID, "reason", decision.Reason)
		return lead.Lead{}, decision.Err("You can only modify leads you created")
	}
	s.warnNameMatch(ctx, decision, leadID, id)

	if err := validation.Struct(req); err != nil {
		return lead.Lead{}, err
	}

	updated, err := s.repo.Update(ctx, leadID, req, s.now())
	if err != nil {
		return lead.Lead{}, mapLeadErr(err, "Could not update lead")
	}

	s.log.InfoContext(ctx, "lead updated", "lead_id", leadID, "user_id", id.UserID, "match", decision.Match)

	return updated, nil
}

func (s *LeadService) Delete(ctx context.Context, id auth.Identity, leadID int64) error {
	existing, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		return mapLeadErr(err, "Could not delete lead")
	}

	decision := policy.CanMutateLead(id, existing)
	if !decision.Allowed {
		s.log.WarnContext(ctx, "lead delete denied", "lead_id", leadID, "user_id", id.UserID, "reason", decision.Reason)
		return decision.Err("You can only delete leads you created")
	}
	s.warnNameMatch(ctx, decision, leadID, id)

	if err := s.repo.Delete(ctx, leadID); err != nil {
		return mapLeadErr(err, "Could not delete lead")
	}

	s.log.InfoContext(ctx, "lead deleted", "lead_id", leadID, "user_id", id.UserID)

	return nil
}

func (s *LeadService) DeleteAll(ctx context.Context, id auth.Identity) (int64, error) {
	if err := policy.CanBulkDeleteLeads(id).Err("Administrator role required"); err != nil {
		return 0, err
	}

	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, apperr.Internal(err, "Could not delete leads")
	}

	s.log.WarnContext(ctx, "all leads deleted", "count", n, "user_id", id.UserID)

	return n, nil
}

func (s *LeadService) Search(ctx context.Context, c lead.SearchCriteria) ([]lead.Lead, error) {
	leads, err := s.repo.Search(ctx, c)
	if err != nil {
		return nil, apperr.Internal(err, "Could not search leads")
	}
	return leads, nil
}

// SearchWithin runs the search and keeps only leads created inside window.
func (s *LeadService) SearchWithin(ctx context.Context, c lead.SearchCriteria, window lead.DateRange) ([]lead.Lead, error) {
	if err := checkRange(window); err != nil {
		return nil, err
	}

	found, err := s.Search(ctx, c)
	if err != nil {
		return nil, err
	}

	leads := make([]lead.Lead, 0, len(found))
	for _, l := range found {
		if window.Contains(l.CreatedAt) {
			leads = append(leads, l)
		}
	}
	return leads, nil
}

func (s *LeadService) ListByDateRange(ctx context.Context, window lead.DateRange) ([]lead.Lead, error) {
	if err := checkRange(window); err != nil {
		return nil, err
	}

	leads, err := s.repo.List(ctx, window)
	if err != nil {
		return nil, apperr.Internal(err, "Could not fetch leads")
	}
	return leads, nil
}

// Metrics aggregates the leads created inside window.
func (s *LeadService) Metrics(ctx context.Context, window lead.DateRange) (metrics.Report, error) {
	leads, err := s.ListByDateRange(ctx, window)
	if err != nil {
		return metrics.Report{}, err
	}
	return metrics.Compute(leads), nil
}

// warnNameMatch flags ownership granted by display name. Those rows predate
// creator ids and should be backfilled.
func (s *LeadService) warnNameMatch(ctx context.Context, d policy.Decision, leadID int64, id auth.Identity) {
	if d.Match == policy.MatchOwnerName {
		s.log.WarnContext(ctx, "deprecated name-based lead ownership match", "lead_id", leadID, "user_id", id.UserID, "name", id.Name)
	}
}

func checkRange(window lead.DateRange) error {
	if window.From != nil && window.To != nil && window.From.After(*window.To) {
		return apperr.Validation("fromDate must not be after toDate", map[string]any{
			"fields": []validation.FieldError{{Field: "fromDate", Rule: "range", Message: "must not be after toDate"}},
		})
	}
	return nil
}

func mapLeadErr(err error, message string) error {
	if errors.Is(err, lead.ErrNotFound) {
		return apperr.NotFound("Lead not found")
	}
	return apperr.Internal(err, message)
}
