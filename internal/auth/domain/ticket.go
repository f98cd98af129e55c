package domain

import "time"

// TicketKind separates the single-use ticket namespaces.
type TicketKind string

const (
	TicketMFATOTP           TicketKind = "mfa_totp"
	TicketEmailVerification TicketKind = "email_verification"
)

// Ticket is a single-use bearer token bound to a user. Only the
// fingerprint of the ticket string is stored.
type Ticket struct {
	ID         string
	Kind       TicketKind
	TokenHash  string
	UserID     string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// Live reports whether the ticket may still be redeemed at now.
func (t Ticket) Live(now time.Time) bool {
	return t.ConsumedAt == nil && now.Before(t.ExpiresAt)
}
