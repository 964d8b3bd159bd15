package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by both login and register.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// SessionState is what the browser sees of its session and auth form.
type SessionState struct {
	LoggedIn   bool   `json:"logged_in"`
	Username   string `json:"username,omitempty"`
	Mode       string `json:"mode"` // "login" | "register"
	Submitting bool   `json:"submitting"`
	Error      string `json:"error,omitempty"`
	Redirect   string `json:"redirect,omitempty"`
}

type AuthSubmitRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}
