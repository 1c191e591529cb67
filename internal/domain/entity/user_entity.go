package entity

import (
	"time"
)

// Role is the authorization role stored on a user row.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the aggregate root for the identity domain.
// Passwords are stored as bcrypt hashes in Password field.
type User struct {
	ID              string
	Name            string
	Email           string
	Password        string
	Role            Role
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

func (u *User) IsVerified() bool { return u != nil && u.EmailVerifiedAt != nil }

// UserWithReportCount is a row of the admin user listing.
type UserWithReportCount struct {
	User
	ReportsCount int
}
