// Package auth resolves bearer tokens into actors. The core domain
// services never authenticate; they trust the actor id and role handed to
// them by this package's HTTP middleware.
package auth

import (
	"time"

	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// User is an account that can obtain a token.
type User struct {
	ID           int64       `json:"id" db:"id"`
	Username     string      `json:"username" db:"username"`
	FullName     string      `json:"full_name" db:"full_name"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Role         shared.Role `json:"role" db:"role"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// LoginRequest carries credentials for token issuance.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the bearer token and the resolved actor.
type LoginResponse struct {
	Token string       `json:"token"`
	Actor shared.Actor `json:"actor"`
}
