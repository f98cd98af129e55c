package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
)

// CredentialVerifier checks an email and password against the user store.
type CredentialVerifier struct {
	Store  store.Store
	Hasher *cryptox.Hasher

	dummyOnce sync.Once
	dummyHash string
}

// Verify returns the user owning email if password matches. An unknown
// email and a wrong password both yield ErrInvalidCredentials, and both
// pay for one Argon2 verification.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (domain.User, error) {
	email = normalizeEmail(email)

	user, err := v.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = v.Hasher.VerifyPassword(password, v.dummy())
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := v.Hasher.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) || errors.Is(err, cryptox.ErrInvalidHash) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("verify password: %w", err)
	}
	return user, nil
}

func (v *CredentialVerifier) dummy() string {
	v.dummyOnce.Do(func() {
		v.dummyHash, _ = v.Hasher.HashPassword("not-a-real-password")
	})
	return v.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
