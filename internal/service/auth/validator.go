package auth

import (
	"context"
	"time"
)

// TokenValidator checks bearer tokens presented to the admin endpoints.
// Tokens are issued out of band with the shared secret; this service only
// validates them.
type TokenValidator interface {
	// ValidateToken verifies signature and time claims and returns the
	// claims of a valid token.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims holds the registered claims the service cares about.
type Claims struct {
	// Subject identifies the operator or system the token was issued to.
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
