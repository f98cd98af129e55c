package domain

import "time"

// Session is what every successful sign-in returns.
type Session struct {
	AccessToken          string
	AccessTokenExpiresIn time.Duration
	RefreshToken         string
	User                 User
}

// SignInResult carries either a session or an MFA ticket.
type SignInResult struct {
	Session   *Session
	MFATicket string
}

// RefreshToken is the stored record of an opaque refresh token.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // base64url SHA-256 of the token
	SessionID string // stable across rotations
	AMR       []string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Usable reports whether the token can still be exchanged at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
