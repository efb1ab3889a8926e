// Package model defines the data structures used throughout the application.
//
// JSON tags are camelCase (the API contract); db tags name the snake_case
// columns the sqlite adapters read and write.
package model

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a dashboard account.
//
// Accounts come from two identity providers: GitHub OAuth (GitHubLogin is set)
// and email/password (PasswordHash is set). The hash never leaves the server.
type User struct {
	ID           string    `json:"id"          db:"id"`
	Name         string    `json:"name"        db:"name"`
	Email        string    `json:"email"       db:"email"`
	Role         string    `json:"role"        db:"role"`
	GitHubLogin  string    `json:"githubLogin" db:"github_login"`
	PasswordHash string    `json:"-"           db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"   db:"updated_at"`
}

// IsAdmin reports whether the user may call role-gated operations.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
