// Package entities contains domain entities with identity and lifecycle.
// Entities are mutable and compared by their ID, not by their attributes.
//
// None of them depend on infrastructure (no DB, no HTTP).
package entities

import (
	"regexp"
	"strings"
	"time"

	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/google/uuid"
)

// User represents an account holder. Every user owns exactly one wallet.
type User struct {
	id        uuid.UUID
	email     string
	fullName  string
	createdAt time.Time
	updatedAt time.Time
}

// Email validation regex (simplified - real systems use more complex validation)
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NewUser creates a new User with validation.
//
// Business Rules:
//   - Email must be valid format and unique (uniqueness checked by repository)
//   - Full name is required
func NewUser(email, fullName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return nil, errors.ErrInvalidEmail
	}

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, errors.ValidationError{
			Field:   "fullName",
			Message: "full name is required",
		}
	}

	now := time.Now().UTC()
	return &User{
		id:        uuid.New(),
		email:     email,
		fullName:  fullName,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructUser reconstructs a User from stored data.
// No validation - assumes data is already valid.
func ReconstructUser(id uuid.UUID, email, fullName string, createdAt, updatedAt time.Time) *User {
	return &User{
		id:        id,
		email:     email,
		fullName:  fullName,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// ID returns the user's unique identifier.
func (u *User) ID() uuid.UUID {
	return u.id
}

// Email returns the user's email.
func (u *User) Email() string {
	return u.email
}

// FullName returns the user's full name.
func (u *User) FullName() string {
	return u.fullName
}

// CreatedAt returns when the user was created.
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns when the user was last updated.
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// UpdateProfile changes email and full name with the same rules as NewUser.
func (u *User) UpdateProfile(email, fullName string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRegex.MatchString(email) {
		return errors.ErrInvalidEmail
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return errors.ValidationError{Field: "fullName", Message: "full name is required"}
	}

	u.email = email
	u.fullName = fullName
	u.updatedAt = time.Now().UTC()
	return nil
}
