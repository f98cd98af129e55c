package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

const (
	MinPasswordLength = 9

	EmailVerificationTicketPrefix = "verifyEmail:"
	DefaultEmailVerificationTTL   = 24 * time.Hour
	DefaultRole                   = "user"
	DefaultLocale                 = "en"
)

type AccountService struct {
	Store    store.Store
	Hasher   *cryptox.Hasher
	Sessions *SessionService
	Notifier Notifier

	DefaultRole          string
	AllowedRoles         []string // roles a sign-up may request besides DefaultRole
	DisableNewUsers      bool
	RequireVerifiedEmail bool
	VerificationTTL      time.Duration
}

type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
	Locale      string
	DefaultRole string
	Roles       []string
	Metadata    map[string]any
}

// SignUp creates an account. It returns a session only when the new user
// may sign in straight away: not disabled and no verification pending.
func (s *AccountService) SignUp(ctx context.Context, in SignUpInput) (*domain.Session, error) {
	email := normalizeEmail(in.Email)
	if strings.Count(email, "@") != 1 || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := s.Hasher.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	defaultRole, roles, err := s.roles(in.DefaultRole, in.Roles)
	if err != nil {
		return nil, err
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName = email
	}
	locale := in.Locale
	if locale == "" {
		locale = DefaultLocale
	}

	now := time.Now()
	user := domain.NewUser{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Locale:       locale,
		DefaultRole:  defaultRole,
		Roles:        roles,
		Disabled:     s.DisableNewUsers,
		Metadata:     in.Metadata,
		CreatedAt:    now,
	}

	var verifyTicket string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailInUse
			}
			return err
		}
		if !s.RequireVerifiedEmail {
			return nil
		}

		var err error
		verifyTicket, err = s.newVerificationTicket(ctx, tx, user.ID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	l := slogx.FromContext(ctx).With(slog.String("user_id", user.ID))
	l.Info("user signed up", slog.Bool("disabled", user.Disabled))

	if verifyTicket != "" {
		if err := s.Notifier.SendEmailVerification(ctx, email, verifyTicket); err != nil {
			// The account exists; the user can ask for another email.
			l.Error("failed to send verification email", slog.Any("error", err))
		}
		return nil, nil
	}
	if user.Disabled {
		return nil, nil
	}

	created, err := s.Store.Users().GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("reload user: %w", err)
	}
	sess, err := s.Sessions.IssueSession(ctx, created, []string{jwtx.AMRPassword})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// VerifyEmail consumes an email verification ticket and marks the address
// verified.
func (s *AccountService) VerifyEmail(ctx context.Context, ticket string) error {
	if !strings.HasPrefix(ticket, EmailVerificationTicketPrefix) {
		return ErrInvalidTicket
	}
	hash := cryptox.FingerprintToken(ticket)

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		now := time.Now()
		t, err := tx.Tickets().GetLiveTicket(ctx, domain.TicketEmailVerification, hash, now)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidTicket
		}
		if err != nil {
			return err
		}

		if err := tx.Tickets().ConsumeTicket(ctx, domain.TicketEmailVerification, hash, now); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInvalidTicket
			}
			return err
		}

		if err := tx.Users().SetEmailVerified(ctx, t.UserID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidTicket
			}
			return err
		}

		slogx.FromContext(ctx).Info("email verified", slog.String("user_id", t.UserID))
		return nil
	})
}

// GetUser returns the user record behind an access token subject.
func (s *AccountService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return user, err
}

// roles resolves the requested roles against the configured default and
// allow-list. The default role is always granted.
func (s *AccountService) roles(requestedDefault string, requested []string) (string, []string, error) {
	configured := s.DefaultRole
	if configured == "" {
		configured = DefaultRole
	}
	allowed := func(role string) bool {
		return role == configured || slices.Contains(s.AllowedRoles, role)
	}

	defaultRole := configured
	if requestedDefault != "" {
		if !allowed(requestedDefault) {
			return "", nil, ErrRoleNotAllowed
		}
		defaultRole = requestedDefault
	}

	roles := []string{defaultRole}
	if defaultRole != configured {
		roles = append(roles, configured)
	}
	for _, role := range requested {
		if !allowed(role) {
			return "", nil, ErrRoleNotAllowed
		}
		if !slices.Contains(roles, role) {
			roles = append(roles, role)
		}
	}
	return defaultRole, roles, nil
}

func (s *AccountService) newVerificationTicket(ctx context.Context, tx store.Tx, userID string, now time.Time) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	ticket := EmailVerificationTicketPrefix + token

	ttl := s.VerificationTTL
	if ttl <= 0 {
		ttl = DefaultEmailVerificationTTL
	}

	err = tx.Tickets().CreateTicket(ctx, domain.Ticket{
		ID:        idx.NewAt(now).String(),
		Kind:      domain.TicketEmailVerification,
		TokenHash: cryptox.FingerprintToken(ticket),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("store verification ticket: %w", err)
	}
	return ticket, nil
}
