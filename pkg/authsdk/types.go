package authsdk

import "time"

// MFATypeTOTP is the only second factor currently supported.
const MFATypeTOTP = "totp"

type SignUpOptions struct {
	DisplayName  string         `json:"displayName,omitempty" validate:"omitempty,max=128"`
	Locale       string         `json:"locale,omitempty" validate:"omitempty,min=2,max=8"`
	DefaultRole  string         `json:"defaultRole,omitempty" validate:"omitempty,max=64"`
	AllowedRoles []string       `json:"allowedRoles,omitempty" validate:"omitempty,dive,required,max=64"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type SignUpEmailPasswordRequest struct {
	Email    string         `json:"email" validate:"required,email,max=254"`
	Password string         `json:"password" validate:"required,min=9,max=128"`
	Options  *SignUpOptions `json:"options,omitempty"`
}

type SignInEmailPasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignInMFATOTPRequest struct {
	Ticket string `json:"ticket" validate:"required"`
	OTP    string `json:"otp" validate:"required"`
}

// UserMFARequest toggles the active MFA type. A null or empty ActiveMFAType
// disables MFA.
type UserMFARequest struct {
	Code          string  `json:"code" validate:"required"`
	ActiveMFAType *string `json:"activeMfaType"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	All          bool   `json:"all,omitempty"`
}

type VerifyEmailRequest struct {
	Ticket string `json:"ticket" validate:"required"`
}

type ProviderTokensRequest struct {
	ProviderID string `json:"providerId"`
	UserID     string `json:"userId"`
}

type ProviderTokensResponse struct {
	ProviderID   string    `json:"providerId"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type User struct {
	ID            string         `json:"id"`
	CreatedAt     time.Time      `json:"createdAt"`
	DisplayName   string         `json:"displayName"`
	AvatarURL     string         `json:"avatarUrl"`
	Locale        string         `json:"locale"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"emailVerified"`
	DefaultRole   string         `json:"defaultRole"`
	Roles         []string       `json:"roles"`
	ActiveMFAType *string        `json:"activeMfaType"`
	Metadata      map[string]any `json:"metadata"`
}

type Session struct {
	AccessToken          string `json:"accessToken"`
	AccessTokenExpiresIn int64  `json:"accessTokenExpiresIn"`
	RefreshToken         string `json:"refreshToken"`
	User                 *User  `json:"user"`
}

type MFAChallenge struct {
	Ticket string `json:"ticket"`
}

// SessionResponse is returned by every sign-in flow. Exactly one of Session
// and MFA is non-nil, except for sign-up awaiting email verification where
// both are nil.
type SessionResponse struct {
	Session *Session      `json:"session"`
	MFA     *MFAChallenge `json:"mfa"`
}

type TOTPGenerateResponse struct {
	TOTPSecret      string `json:"totpSecret"`
	ProvisioningURI string `json:"provisioningUri"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
