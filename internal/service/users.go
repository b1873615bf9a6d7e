package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/geocoder89/salestrack/internal/policy"
	"github.com/geocoder89/salestrack/internal/security"
	"github.com/geocoder89/salestrack/internal/validation"
)

type UserRepository interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	CountByRole(ctx context.Context, role user.Role) (int, error)
	Update(ctx context.Context, id int64, changes user.Changes, guard user.RemovalGuard) (user.User, error)
	Delete(ctx context.Context, id int64, guard user.RemovalGuard) error
}

type UserService struct {
	repo UserRepository
	log  *slog.Logger
}

func NewUserService(repo UserRepository, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{repo: repo, log: log}
}

func (s *UserService) List(ctx context.Context, id auth.Identity) ([]user.User, error) {
	if err := policy.CanListUsers(id).Err("Sales Manager role required"); err != nil {
		return nil, err
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Could not fetch users")
	}
	return users, nil
}

// Get returns a user to managers or to the user themselves.
func (s *UserService) Get(ctx context.Context, id auth.Identity, userID int64) (user.User, error) {
	if id.UserID != userID {
		if err := policy.CanListUsers(id).Err("Sales Manager role required"); err != nil {
			return user.User{}, err
		}
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, mapUserErr(err, "Could not fetch user")
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, id auth.Identity, req user.CreateRequest) (user.User, error) {
	if err := policy.CanCreateUser(id).Err("Administrator role required"); err != nil {
		return user.User{}, err
	}

	if err := validation.Struct(req); err != nil {
		return user.User{}, err
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return user.User{}, apperr.Internal(err, "Could not create user")
	}

	created, err := s.repo.Create(ctx, user.User{
		Username:     req.Username,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         req.Role,
		Avatar:       req.Avatar,
	})
	if err != nil {
		return user.User{}, mapUserErr(err, "Could not create user")
	}

	s.log.InfoContext(ctx, "user created", "user_id", created.ID, "role", created.Role, "by", id.UserID)

	return created, nil
}

func (s *UserService) Update(ctx context.Context, id auth.Identity, userID int64, req user.UpdateRequest) (user.User, error) {
	target, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, mapUserErr(err, "Could not update user")
	}

	if err := policy.CanUpdateUser(id, target, req).Err("You cannot make this change"); err != nil {
		return user.User{}, err
	}

	if err := validation.Struct(req); err != nil {
		return user.User{}, err
	}

	changes := user.Changes{
		Username: req.Username,
		Name:     req.Name,
		Role:     req.Role,
		Avatar:   req.Avatar,
	}

	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password)
		if err != nil {
			return user.User{}, apperr.Internal(err, "Could not update user")
		}
		changes.PasswordHash = &hash
	}

	updated, err := s.repo.Update(ctx, userID, changes, policy.GuardLastAdministrator)
	if err != nil {
		return user.User{}, mapUserErr(err, "Could not update user")
	}

	s.log.InfoContext(ctx, "user updated", "user_id", userID, "by", id.UserID)

	return updated, nil
}

// Delete removes a user. The last Administrator check runs inside the
// store's critical section.
func (s *UserService) Delete(ctx context.Context, id auth.Identity, userID int64) error {
	if err := policy.CanDeleteUser(id).Err("Administrator role required"); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, policy.GuardLastAdministrator); err != nil {
		return mapUserErr(err, "Could not delete user")
	}

	s.log.InfoContext(ctx, "user deleted", "user_id", userID, "by", id.UserID)

	return nil
}

// EnsureAdministrator creates the bootstrap Administrator when none exists.
// It reports whether a user was created.
func (s *UserService) EnsureAdministrator(ctx context.Context, username, password, name string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	n, err := s.repo.CountByRole(ctx, user.RoleAdministrator)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return false, err
	}

	if name == "" {
		name = username
	}

	created, err := s.repo.Create(ctx, user.User{
		Username:     username,
		PasswordHash: hash,
		Name:         name,
		Role:         user.RoleAdministrator,
	})
	if err != nil {
		return false, err
	}

	s.log.InfoContext(ctx, "bootstrap administrator created", "user_id", created.ID, "username", created.Username)

	return true, nil
}

func mapUserErr(err error, message string) error {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, user.ErrUsernameTaken):
		return apperr.Conflict(err, "Username is already in use")
	case errors.Is(err, user.ErrLastAdministrator):
		return apperr.Conflict(err, "Cannot remove the last Administrator")
	default:
		return apperr.Internal(err, message)
	}
}
