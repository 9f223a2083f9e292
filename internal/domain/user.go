package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PriorityTier is a per-user tier carried alongside the user record.
// It is unrelated to task urgency.
type PriorityTier int

// Common validation errors for User
var (
	ErrEmptyUserID         = fmt.Errorf("%w: user ID cannot be empty", ErrInvalidID)
	ErrInvalidPriorityTier = fmt.Errorf("%w: priority tier must be 0, 1 or 2", ErrValidation)
)

// User is the owner of tasks. A user without a phone number cannot be
// reached by reminder calls.
type User struct {
	ID           uuid.UUID    `json:"id"`
	PhoneNumber  string       `json:"phone_number,omitempty"`
	PriorityTier PriorityTier `json:"priority_tier"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewUser creates a new User with the given phone number and tier.
// Returns an error if validation fails.
func NewUser(phoneNumber string, tier PriorityTier) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		PhoneNumber:  strings.TrimSpace(phoneNumber),
		PriorityTier: tier,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.PriorityTier < 0 || u.PriorityTier > 2 {
		return ErrInvalidPriorityTier
	}
	return nil
}

// HasContact reports whether the user has a phone number to call.
func (u *User) HasContact() bool {
	return strings.TrimSpace(u.PhoneNumber) != ""
}
