package domain

import "time"

// ProviderToken is a user's delegated OAuth grant at an upstream provider.
type ProviderToken struct {
	ID             string
	UserID         string
	ProviderID     string
	ProviderUserID string
	AccessToken    string
	RefreshToken   *string
	Revision       int64 // bumped on every rotation
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
