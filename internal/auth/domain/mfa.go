package domain

import "errors"

// MFAType is the second factor a user must present at sign-in.
type MFAType string

const (
	MFANone MFAType = ""
	MFATOTP MFAType = "totp"
)

var ErrUnknownMFAType = errors.New("domain: unknown mfa type")

// ParseMFAType accepts "" (none) and "totp".
func ParseMFAType(s string) (MFAType, error) {
	switch MFAType(s) {
	case MFANone:
		return MFANone, nil
	case MFATOTP:
		return MFATOTP, nil
	default:
		return MFANone, ErrUnknownMFAType
	}
}

// TOTPSecret is handed to the client once, to load into an authenticator.
type TOTPSecret struct {
	Secret          string // base32
	ProvisioningURI string // otpauth:// URI
}
