package domain

import "time"

// PermissionUser is the baseline role every account receives at registration.
const PermissionUser = "user"

// User is a credential record. It is created on registration and never
// mutated afterwards.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Permissions  []string  `json:"permissions"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasPermission reports whether p is part of the user's permission set.
func (u *User) HasPermission(p string) bool {
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// DefaultPermissions returns a fresh copy of the permission set assigned on
// registration.
func DefaultPermissions() []string {
	return []string{PermissionUser}
}
