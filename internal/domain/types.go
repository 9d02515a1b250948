// Package domain defines the core types for the auth service.
package domain

import (
	"time"
)

// User represents an account in the system.
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"password_hash,omitempty"`
	DisplayName       string    `json:"display_name,omitempty"`
	BusinessProfileID string    `json:"business_profile_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// BusinessProfile represents the business profile provisioned with each account.
type BusinessProfile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenSet is the token bundle issued by the provider after a successful
// exchange. It is passed through to the client without interpretation.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}
