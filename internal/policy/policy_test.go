package policy

import (
	"testing"

	"github.com/geocoder89/salestrack/internal/apperr"
	"github.com/geocoder89/salestrack/internal/auth"
	"github.com/geocoder89/salestrack/internal/domain/lead"
	"github.com/geocoder89/salestrack/internal/domain/user"
	"github.com/stretchr/testify/assert"
)

var (
	admin   = auth.Identity{UserID: 1, Role: user.RoleAdministrator, Name: "Admin"}
	manager = auth.Identity{UserID: 2, Role: user.RoleSalesManager, Name: "Malee"}
	rep     = auth.Identity{UserID: 3, Role: user.RoleSalesRepresentative, Name: "Rep Three"}
	other   = auth.Identity{UserID: 4, Role: user.RoleSalesRepresentative, Name: "Rep Four"}
)

func TestHasMinimumRole(t *testing.T) {
	tests := []struct {
		name     string
		id       auth.Identity
		required []user.Role
		want     bool
	}{
		{"admin meets manager", admin, []user.Role{user.RoleSalesManager}, true},
		{"manager meets manager", manager, []user.Role{user.RoleSalesManager}, true},
		{"rep below manager", rep, []user.Role{user.RoleSalesManager}, false},
		{"rep meets rep", rep, []user.Role{user.RoleSalesRepresentative}, true},
		{"unknown role never passes", auth.Identity{UserID: 9, Role: "Intern"}, []user.Role{user.RoleSalesRepresentative}, false},
		{"any of several", rep, []user.Role{user.RoleAdministrator, user.RoleSalesRepresentative}, true},
		{"known role with no requirement", rep, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasMinimumRole(tt.id, tt.required...))
		})
	}
}

func TestCanMutateLead(t *testing.T) {
	owned := lead.Lead{ID: 10, CreatedByID: rep.UserID, CreatedBy: rep.Name}
	legacy := lead.Lead{ID: 11, CreatedBy: rep.Name}
	orphan := lead.Lead{ID: 12}

	tests := []struct {
		name       string
		id         auth.Identity
		lead       lead.Lead
		wantAllow  bool
		wantReason Reason
		wantMatch  Match
	}{
		{"owner by id", rep, owned, true, ReasonNone, MatchOwnerID},
		{"other rep denied", other, owned, false, ReasonNotOwner, MatchNone},
		{"manager override", manager, owned, true, ReasonNone, MatchPrivileged},
		{"admin override", admin, orphan, true, ReasonNone, MatchPrivileged},
		{"legacy row matched by name", rep, legacy, true, ReasonNone, MatchOwnerName},
		{"legacy row other name", other, legacy, false, ReasonNotOwner, MatchNone},
		{"unattributed row denied to reps", rep, orphan, false, ReasonNotOwner, MatchNone},
		{
			name:       "matching name ignored when creator id is set",
			id:         auth.Identity{UserID: other.UserID, Role: user.RoleSalesRepresentative, Name: rep.Name},
			lead:       lead.Lead{ID: 13, CreatedByID: rep.UserID, CreatedBy: rep.Name},
			wantReason: ReasonNotOwner,
		},
		{
			name:       "id wins over a matching name",
			id:         auth.Identity{UserID: 99, Role: user.RoleSalesRepresentative, Name: rep.Name},
			lead:       owned,
			wantReason: ReasonNotOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := CanMutateLead(tt.id, tt.lead)
			assert.Equal(t, tt.wantAllow, d.Allowed)
			assert.Equal(t, tt.wantReason, d.Reason)
			assert.Equal(t, tt.wantMatch, d.Match)
		})
	}
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, allow(MatchPrivileged).Err("nope"))

	err := deny(ReasonNotOwner).Err("You can only modify leads you created")
	appErr := apperr.As(err)
	if assert.NotNil(t, appErr) {
		assert.Equal(t, apperr.CodeForbidden, appErr.Code())
		assert.Equal(t, "not_owner", appErr.Reason())
	}
}

func TestUserManagementRules(t *testing.T) {
	promote := user.RoleAdministrator
	name := "New Name"

	assert.True(t, CanListUsers(manager).Allowed)
	assert.False(t, CanListUsers(rep).Allowed)

	assert.True(t, CanCreateUser(admin).Allowed)
	assert.False(t, CanCreateUser(manager).Allowed)

	assert.True(t, CanDeleteUser(admin).Allowed)
	assert.Equal(t, ReasonInsufficientRole, CanDeleteUser(manager).Reason)

	repUser := user.User{ID: rep.UserID, Role: user.RoleSalesRepresentative}
	otherUser := user.User{ID: other.UserID, Role: user.RoleSalesRepresentative}
	managerUser := user.User{ID: manager.UserID, Role: user.RoleSalesManager}
	adminUser := user.User{ID: admin.UserID, Role: user.RoleAdministrator}

	assert.True(t, CanUpdateUser(manager, repUser, user.UpdateRequest{Name: &name}).Allowed)
	assert.False(t, CanUpdateUser(manager, repUser, user.UpdateRequest{Role: &promote}).Allowed)
	assert.True(t, CanUpdateUser(admin, managerUser, user.UpdateRequest{Role: &promote}).Allowed)

	assert.True(t, CanUpdateUser(rep, repUser, user.UpdateRequest{Name: &name}).Allowed)
	assert.False(t, CanUpdateUser(rep, otherUser, user.UpdateRequest{Name: &name}).Allowed)

	self := user.RoleSalesRepresentative
	assert.False(t, CanUpdateUser(rep, repUser, user.UpdateRequest{Role: &self}).Allowed)

	// a manager cannot take over or demote an account that outranks them
	password := "new-password"
	username := "hijacked"
	demote := user.RoleSalesRepresentative
	assert.Equal(t, ReasonInsufficientRole, CanUpdateUser(manager, adminUser, user.UpdateRequest{Password: &password}).Reason)
	assert.False(t, CanUpdateUser(manager, adminUser, user.UpdateRequest{Username: &username}).Allowed)
	assert.False(t, CanUpdateUser(manager, adminUser, user.UpdateRequest{Role: &demote}).Allowed)
	assert.True(t, CanUpdateUser(manager, managerUser, user.UpdateRequest{Password: &password}).Allowed)
	assert.True(t, CanUpdateUser(admin, adminUser, user.UpdateRequest{Password: &password}).Allowed)

	assert.True(t, CanManageAPIKeys(admin).Allowed)
	assert.False(t, CanManageAPIKeys(manager).Allowed)
	assert.True(t, CanBulkDeleteLeads(admin).Allowed)
	assert.False(t, CanBulkDeleteLeads(manager).Allowed)
}

func TestGuardLastAdministrator(t *testing.T) {
	adminUser := user.User{ID: 1, Role: user.RoleAdministrator}
	repUser := user.User{ID: 3, Role: user.RoleSalesRepresentative}

	assert.ErrorIs(t, GuardLastAdministrator(adminUser, 1), user.ErrLastAdministrator)
	assert.NoError(t, GuardLastAdministrator(adminUser, 2))
	assert.NoError(t, GuardLastAdministrator(repUser, 1))
	assert.NoError(t, GuardLastAdministrator(repUser, 0))
}
