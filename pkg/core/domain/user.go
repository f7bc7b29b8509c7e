package domain

import "time"

// User is an identity resolved from a bearer token or a legacy user key.
type User struct {
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Key       string    `json:"key,omitempty" db:"user_key"`
	Admin     bool      `json:"admin" db:"admin"`
	Valid     bool      `json:"valid" db:"valid"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Privilege is what a requester is allowed to bypass.
type Privilege int

const (
	PrivilegeAnonymous Privilege = iota
	PrivilegeStandard
	PrivilegeAdmin
)

func (p Privilege) String() string {
	switch p {
	case PrivilegeAdmin:
		return "admin"
	case PrivilegeStandard:
		return "standard"
	}
	return "anonymous"
}

// PrivilegeOf maps a resolved user to a privilege level. A nil user is anonymous.
func PrivilegeOf(u *User) Privilege {
	switch {
	case u == nil:
		return PrivilegeAnonymous
	case u.Admin:
		return PrivilegeAdmin
	}
	return PrivilegeStandard
}
