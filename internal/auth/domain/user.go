package domain

import "time"

type User struct {
	ID            string
	Email         string
	PasswordHash  string // argon2id PHC string
	DisplayName   string
	AvatarURL     string
	Locale        string
	DefaultRole   string
	Roles         []string
	ActiveMFAType MFAType
	TOTPSecret    *string // as stored, possibly sealed
	MFARevision   int64   // bumped on every MFA state write
	EmailVerified bool
	Disabled      bool
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasActiveMFA reports whether sign-in needs a second factor.
func (u User) HasActiveMFA() bool {
	return u.ActiveMFAType != MFANone
}

// NewUser is the input for account creation.
type NewUser struct {
	ID            string
	Email         string
	PasswordHash  string
	DisplayName   string
	AvatarURL     string
	Locale        string
	DefaultRole   string
	Roles         []string
	EmailVerified bool
	Disabled      bool
	Metadata      map[string]any
	CreatedAt     time.Time
}
