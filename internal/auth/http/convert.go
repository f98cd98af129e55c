package http

import (
	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
)

func toUser(u domain.User) *authsdk.User {
	var mfaType *string
	if u.HasActiveMFA() {
		t := string(u.ActiveMFAType)
		mfaType = &t
	}

	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	metadata := u.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	return &authsdk.User{
		ID:            u.ID,
		CreatedAt:     u.CreatedAt.UTC(),
		DisplayName:   u.DisplayName,
		AvatarURL:     u.AvatarURL,
		Locale:        u.Locale,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		DefaultRole:   u.DefaultRole,
		Roles:         roles,
		ActiveMFAType: mfaType,
		Metadata:      metadata,
	}
}

func toSession(s domain.Session) *authsdk.Session {
	return &authsdk.Session{
		AccessToken:          s.AccessToken,
		AccessTokenExpiresIn: int64(s.AccessTokenExpiresIn.Seconds()),
		RefreshToken:         s.RefreshToken,
		User:                 toUser(s.User),
	}
}
