package user

import "errors"

type Role string

const (
	RoleAdministrator       Role = "Administrator"
	RoleSalesManager        Role = "Sales Manager"
	RoleSalesRepresentative Role = "Sales Representative"
)

var Roles = []Role{RoleAdministrator, RoleSalesManager, RoleSalesRepresentative}

// Level ranks roles; an unknown role ranks below every known one.
func (r Role) Level() int {
	switch r {
	case RoleAdministrator:
		return 3
	case RoleSalesManager:
		return 2
	case RoleSalesRepresentative:
		return 1
	default:
		return 0
	}
}

func (r Role) IsValid() bool {
	return r.Level() > 0
}

type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // never expose hash in JSON
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	Avatar       string `json:"avatar,omitempty"`
}

var (
	ErrNotFound          = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrLastAdministrator = errors.New("cannot remove the last administrator")
)

type CreateRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"required,max=120"`
	Role     Role   `json:"role" validate:"required,userrole"`
	Avatar   string `json:"avatar" validate:"omitempty,max=2048"`
}

type UpdateRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=64"`
	Password *string `json:"password" validate:"omitempty,min=6,max=128"`
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	Role     *Role   `json:"role" validate:"omitempty,userrole"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=2048"`
}

// Changes is what the store persists for an update; the password is
// already hashed by then.
type Changes struct {
	Username     *string
	PasswordHash *string
	Name         *string
	Role         *Role
	Avatar       *string
}

func (c Changes) Apply(u User) User {
	if c.Username != nil {
		u.Username = *c.Username
	}
	if c.PasswordHash != nil {
		u.PasswordHash = *c.PasswordHash
	}
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Role != nil {
		u.Role = *c.Role
	}
	if c.Avatar != nil {
		u.Avatar = *c.Avatar
	}
	return u
}

// RemovalGuard runs inside the store's critical section with the user being
// removed (or demoted) and the current administrator count.
type RemovalGuard func(target User, administrators int) error
