package domain

import (
	"strings"
	"time"
)

// Account is the identity record persisted by the credential store. Every
// account carries a password hash, including accounts provisioned through a
// federated provider (those receive a random, unusable hash so the invariant
// "hash always present" holds).
type Account struct {
	ID            string
	Email         string // unique, stored normalized (lowercase, trimmed)
	Name          string
	AvatarURL     string
	PasswordHash  string // argon2id encoded
	EmailVerified bool

	// Onboarding profile fields
	College  string
	Semester int
	Branch   string

	// Verification artifact slots. One slot per kind: issuing a new token
	// overwrites the previous one, and redemption clears the slot.
	EmailVerificationHash   *string
	EmailVerificationExpiry *time.Time
	PasswordResetHash       *string
	PasswordResetExpiry     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail canonicalizes an email address for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
