// Package identity manages user accounts: registration, login, and the
// authenticated user's own record. Tokens are issued by platform/auth;
// this package owns the users table and password hashing.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can authenticate against the API. Patients get a
// patient profile created alongside their account; admins do not.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the login/register response the client stores.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Me is the authenticated user's own view, including the patient profile id
// when one exists.
type Me struct {
	User
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
}
