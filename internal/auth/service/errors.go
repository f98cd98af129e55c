package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Only the HTTP layer maps kinds to
// status codes.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindConflict
	KindNotFound
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Error is a classified service failure. Two Errors match under errors.Is
// when their codes are equal, so a sentinel still matches after Wrap.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrInvalidCredentials  = newError(KindAuthentication, "invalid-email-password", "Incorrect email or password")
	ErrInvalidCode         = newError(KindAuthentication, "invalid-code", "Invalid code")
	ErrInvalidTicket       = newError(KindAuthentication, "invalid-ticket", "Invalid or expired ticket")
	ErrInvalidRefreshToken = newError(KindAuthentication, "invalid-refresh-token", "Invalid or expired refresh token")

	ErrUserDisabled    = newError(KindAuthorization, "disabled-user", "User is disabled")
	ErrUnverifiedEmail = newError(KindAuthorization, "unverified-user", "Email is not verified")
	ErrUnauthorized    = newError(KindAuthorization, "incorrect-admin-secret", "incorrect admin secret header")

	ErrUnsupportedMFAType = newError(KindValidation, "unsupported-mfa-type", "Unsupported MFA type")
	ErrNoActiveMFA        = newError(KindValidation, "no-active-mfa", "There is no active MFA set for the user")
	ErrMFADisabled        = newError(KindValidation, "disabled-mfa-totp", "MFA TOTP is not enabled")
	ErrMissingUserID      = newError(KindValidation, "missing-user-id", "missing userId")
	ErrMissingProviderID  = newError(KindValidation, "missing-provider-id", "missing providerId")
	ErrUnknownProvider    = newError(KindValidation, "unknown-provider", "Provider is not configured")
	ErrPasswordTooShort   = newError(KindValidation, "password-too-short", "Password is too short")
	ErrInvalidEmail       = newError(KindValidation, "invalid-email", "Email is invalid")
	ErrRoleNotAllowed     = newError(KindValidation, "role-not-allowed", "Role is not allowed")

	ErrMFAAlreadyActive    = newError(KindConflict, "mfa-already-active", "TOTP MFA already active")
	ErrMissingRefreshToken = newError(KindConflict, "missing-refresh-token", "No refresh token stored for provider")
	ErrEmailInUse          = newError(KindConflict, "email-already-in-use", "Email already in use")
	ErrMFAConflict         = newError(KindConflict, "mfa-conflict", "MFA settings changed concurrently, retry")

	ErrUserNotFound          = newError(KindNotFound, "user-not-found", "User not found")
	ErrProviderTokenNotFound = newError(KindNotFound, "provider-token-not-found", "No token stored for this user and provider")

	ErrUpstreamRefreshFailed = newError(KindUpstream, "upstream-refresh-failed", "Provider token refresh failed")

	ErrMissingTOTPSecret   = newError(KindInternal, "missing-totp-secret", "User has no TOTP secret")
	ErrAuthenticatedNoUser = newError(KindInternal, "missing-authenticated-user", "Authenticated user does not exist")
)
