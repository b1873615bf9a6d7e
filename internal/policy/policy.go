// Package policy decides who may do what. Every function is pure: callers
// load the records and act on the Decision.
package policy

import (
	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/geocoder89/salestrack/internal/domain/user"
)

type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotOwner         Reason = "not_owner"
	ReasonInsufficientRole Reason = "insufficient_role"
)

// Match records which rule granted lead access.
type Match string

const (
	MatchNone       Match = ""
	MatchPrivileged Match = "privileged_role"
	MatchOwnerID    Match = "owner_id"
	MatchOwnerName  Match = "owner_name"
)

type Decision struct {
	Allowed bool
	Reason  Reason
	Match   Match
}

func allow(m Match) Decision {
	return Decision{Allowed: true, Match: m}
}

func deny(r Reason) Decision {
	return Decision{Reason: r}
}

// Err converts a denial into a forbidden apperr; an allowed decision is nil.
func (d Decision) Err(message string) error {
	if d.Allowed {
		return nil
	}
	return apperr.Forbidden(string(d.Reason), message)
}

// HasMinimumRole is true when id holds at least one of required's levels.
// With no required roles it only demands a known role.
func HasMinimumRole(id auth.Identity, required ...user.Role) bool {
	level := id.Role.Level()
	if level == 0 {
		return false
	}

	if len(required) == 0 {
		return true
	}

	for _, r := range required {
		if level >= r.Level() {
			return true
		}
	}
	return false
}

func requireRole(id auth.Identity, min user.Role) Decision {
	if HasMinimumRole(id, min) {
		return allow(MatchPrivileged)
	}
	return deny(ReasonInsufficientRole)
}

// CanMutateLead gates lead update and delete. Sales Managers and above may
// touch any lead; everyone else only leads attributed to them. Rows created
// before creator ids were stored fall back to a name comparison. The name is
// deliberately ignored once a creator id is set.
func CanMutateLead(id auth.Identity, l lead.Lead) Decision {
	if HasMinimumRole(id, user.RoleSalesManager) {
		return allow(MatchPrivileged)
	}

	if l.CreatedByID != 0 {
		if l.CreatedByID == id.UserID {
			return allow(MatchOwnerID)
		}
		return deny(ReasonNotOwner)
	}

	if l.CreatedBy != "" && l.CreatedBy == id.Name {
		return allow(MatchOwnerName)
	}

	return deny(ReasonNotOwner)
}

func CanBulkDeleteLeads(id auth.Identity) Decision {
	return requireRole(id, user.RoleAdministrator)
}

func CanListUsers(id auth.Identity) Decision {
	return requireRole(id, user.RoleSalesManager)
}

func CanCreateUser(id auth.Identity) Decision {
	return requireRole(id, user.RoleAdministrator)
}

func CanDeleteUser(id auth.Identity) Decision {
	return requireRole(id, user.RoleAdministrator)
}

// CanUpdateUser lets managers edit users and lets anyone edit their own
// profile. Nobody may assign a role above their own or edit an account that
// outranks them, and a role change on one's own account needs a manager.
func CanUpdateUser(id auth.Identity, target user.User, req user.UpdateRequest) Decision {
	if req.Role != nil && req.Role.Level() > id.Role.Level() {
		return deny(ReasonInsufficientRole)
	}

	if target.ID != id.UserID && target.Role.Level() > id.Role.Level() {
		return deny(ReasonInsufficientRole)
	}

	if HasMinimumRole(id, user.RoleSalesManager) {
		return allow(MatchPrivileged)
	}

	if id.UserID != 0 && id.UserID == target.ID {
		if req.Role != nil {
			return deny(ReasonInsufficientRole)
		}
		return allow(MatchOwnerID)
	}

	return deny(ReasonInsufficientRole)
}

func CanManageAPIKeys(id auth.Identity) Decision {
	return requireRole(id, user.RoleAdministrator)
}

// GuardLastAdministrator refuses to remove or demote the only remaining
// Administrator. It runs inside the store's critical section.
func GuardLastAdministrator(target user.User, administrators int) error {
	if target.Role == user.RoleAdministrator && administrators <= 1 {
		return user.ErrLastAdministrator
	}
	return nil
}

var _ user.RemovalGuard = GuardLastAdministrator
