package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	DefaultTOTPPeriod = 30 // seconds
	DefaultTOTPSkew   = 1  // steps either side of now

	// maxMFAAttempts bounds re-evaluation after losing a revision race.
	maxMFAAttempts = 3
)

// MFAService owns the per-user TOTP state machine:
//
//	Inactive --GenerateSecret--> Inactive (secret stored)
//	Inactive --Activate(code)--> Active(totp)
//	Active   --Deactivate(code)--> Inactive (secret kept)
//
// Every write is a compare-and-swap on the user's MFA revision. A lost race
// re-reads the user and re-evaluates the transition.
type MFAService struct {
	Store  store.Store
	Issuer string // shown in authenticator apps

	Period uint // defaults to DefaultTOTPPeriod
	Skew   uint // defaults to DefaultTOTPSkew

	// Disabled blocks enrolment. Deactivation and sign-in challenges for
	// already active users keep working.
	Disabled bool

	// Secrets seals stored TOTP secrets. Nil stores them as plaintext.
	Secrets *cryptox.SecretBox
}

// GenerateSecret creates and stores a fresh TOTP secret for an inactive
// user. The active MFA type is unchanged until Activate.
func (s *MFAService) GenerateSecret(ctx context.Context, userID string) (domain.TOTPSecret, error) {
	if s.Disabled {
		return domain.TOTPSecret{}, ErrMFADisabled
	}

	for range maxMFAAttempts {
		user, err := s.getUser(ctx, userID)
		if err != nil {
			return domain.TOTPSecret{}, err
		}
		if user.HasActiveMFA() {
			s.count("generate", ErrMFAAlreadyActive)
			return domain.TOTPSecret{}, ErrMFAAlreadyActive
		}

		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      s.Issuer,
			AccountName: user.Email,
			Period:      s.period(),
			Digits:      otp.DigitsSix,
			Algorithm:   otp.AlgorithmSHA1,
		})
		if err != nil {
			return domain.TOTPSecret{}, fmt.Errorf("generate totp key: %w", err)
		}

		stored, err := s.Secrets.Seal(key.Secret())
		if err != nil {
			return domain.TOTPSecret{}, fmt.Errorf("seal totp secret: %w", err)
		}

		err = s.Store.Users().SetTOTPSecret(ctx, user.ID, stored, user.MFARevision)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return domain.TOTPSecret{}, fmt.Errorf("store totp secret: %w", err)
		}

		s.count("generate", nil)
		return domain.TOTPSecret{
			Secret:          key.Secret(),
			ProvisioningURI: key.URL(),
		}, nil
	}

	s.count("generate", ErrMFAConflict)
	return domain.TOTPSecret{}, ErrMFAConflict
}

// Activate turns TOTP on once code proves the user holds the secret.
func (s *MFAService) Activate(ctx context.Context, userID, code string) error {
	if s.Disabled {
		return ErrMFADisabled
	}

	err := s.transition(ctx, userID, func(user domain.User) (domain.MFAType, error) {
		if user.HasActiveMFA() {
			return "", ErrMFAAlreadyActive
		}
		if err := s.validate(user, code); err != nil {
			return "", err
		}
		return domain.MFATOTP, nil
	})
	s.count("activate", err)
	return err
}

// Deactivate turns TOTP off. It requires a currently valid code and keeps
// the stored secret.
func (s *MFAService) Deactivate(ctx context.Context, userID, code string) error {
	err := s.transition(ctx, userID, func(user domain.User) (domain.MFAType, error) {
		if !user.HasActiveMFA() {
			return "", ErrNoActiveMFA
		}
		if err := s.validate(user, code); err != nil {
			return "", err
		}
		return domain.MFANone, nil
	})
	s.count("deactivate", err)
	return err
}

// SetActiveMFAType dispatches a requested type: nil or "" deactivates,
// "totp" activates. Anything else fails before the store is touched.
func (s *MFAService) SetActiveMFAType(ctx context.Context, userID string, requested *string, code string) error {
	if requested == nil || *requested == "" {
		return s.Deactivate(ctx, userID, code)
	}

	t, err := domain.ParseMFAType(*requested)
	if err != nil || t != domain.MFATOTP {
		return ErrUnsupportedMFAType
	}
	return s.Activate(ctx, userID, code)
}

// VerifyCode checks a second-factor code for a user with active MFA.
func (s *MFAService) VerifyCode(_ context.Context, user domain.User, code string) error {
	switch user.ActiveMFAType {
	case domain.MFATOTP:
		return s.validate(user, code)
	default:
		return ErrNoActiveMFA
	}
}

// transition runs decide against the freshest user row and writes its
// result with a compare-and-swap.
func (s *MFAService) transition(
	ctx context.Context,
	userID string,
	decide func(domain.User) (domain.MFAType, error),
) error {
	for range maxMFAAttempts {
		user, err := s.getUser(ctx, userID)
		if err != nil {
			return err
		}

		next, err := decide(user)
		if err != nil {
			return err
		}

		err = s.Store.Users().SetActiveMFAType(ctx, user.ID, next, user.MFARevision)
		if errors.Is(err, store.ErrConflict) {
			slogx.FromContext(ctx).Debug("mfa revision race, retrying", slog.String("user_id", user.ID))
			continue
		}
		if err != nil {
			return fmt.Errorf("update active mfa type: %w", err)
		}

		slogx.FromContext(ctx).Info("active mfa type changed",
			slog.String("user_id", user.ID),
			slog.String("mfa_type", string(next)),
		)
		return nil
	}
	return ErrMFAConflict
}

func (s *MFAService) validate(user domain.User, code string) error {
	if user.TOTPSecret == nil || *user.TOTPSecret == "" {
		return ErrMissingTOTPSecret
	}

	secret, err := s.Secrets.Open(*user.TOTPSecret)
	if err != nil {
		return ErrMissingTOTPSecret.Wrap(err)
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    s.period(),
		Skew:      s.skew(),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !ok {
		return ErrInvalidCode
	}
	return nil
}

// getUser loads the caller of an authenticated MFA request. A token for a
// user that no longer exists is a store inconsistency, not a lookup miss.
func (s *MFAService) getUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrAuthenticatedNoUser
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *MFAService) period() uint {
	if s.Period == 0 {
		return DefaultTOTPPeriod
	}
	return s.Period
}

func (s *MFAService) skew() uint {
	if s.Skew == 0 {
		return DefaultTOTPSkew
	}
	return s.Skew
}

func (s *MFAService) count(op string, err error) {
	result := "success"
	if err != nil {
		result = resultLabel(err)
	}
	metrics.MFAChanges.WithLabelValues(op, result).Inc()
}
