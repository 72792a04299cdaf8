package domain

import "time"

// Role gates access to administrative operations. Nothing in this service
// elevates a user; admins are provisioned out of band.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a registered author account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Avatar       string
	Role         Role
	Posts        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
