package auth

import (
	"strconv"

	"github.com/geocoder89/salestrack/internal/domain/user"
)

// Identity is the caller a request is executed on behalf of.
type Identity struct {
	UserID int64     `json:"id"`
	Role   user.Role `json:"role"`
	Name   string    `json:"name"`
}

func IdentityOf(u user.User) Identity {
	return Identity{UserID: u.ID, Role: u.Role, Name: u.Name}
}

func (i Identity) IsZero() bool {
	return i.UserID == 0 && i.Role == "" && i.Name == ""
}

func (i Identity) Subject() string {
	return strconv.FormatInt(i.UserID, 10)
}
