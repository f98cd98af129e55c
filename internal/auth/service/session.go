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
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// SessionService mints access tokens and rotates refresh tokens.
type SessionService struct {
	KeyManager *jwtx.KeyManager
	Store      store.Store
	Issuer     string
	Audience   []string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssueSession starts a new session for user.
func (s *SessionService) IssueSession(ctx context.Context, user domain.User, amr []string) (domain.Session, error) {
	return s.issue(ctx, s.Store, user, idx.New().String(), amr, time.Now())
}

// RefreshSession exchanges a live refresh token for a new session on the
// same session id. The old token is revoked in the same transaction that
// stores its successor, so a token can be exchanged at most once.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (domain.Session, error) {
	if refreshToken == "" {
		return domain.Session{}, ErrInvalidRefreshToken
	}

	hash := cryptox.FingerprintToken(refreshToken)
	now := time.Now()

	var sess domain.Session
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidRefreshToken
		}
		if err != nil {
			return err
		}
		if !rt.Usable(now) {
			return ErrInvalidRefreshToken
		}

		user, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidRefreshToken
		}
		if err != nil {
			return err
		}
		if user.Disabled {
			return ErrUserDisabled
		}

		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, hash, now); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInvalidRefreshToken
			}
			return err
		}

		sess, err = s.issue(ctx, tx, user, rt.SessionID, rt.AMR, now)
		return err
	})
	if err != nil {
		metrics.SessionRefreshes.WithLabelValues(resultLabel(err)).Inc()
		return domain.Session{}, err
	}

	metrics.SessionRefreshes.WithLabelValues("success").Inc()
	return sess, nil
}

// SignOut revokes refreshToken, or every token of its owner when all is
// set. Signing out with an already revoked token succeeds.
func (s *SessionService) SignOut(ctx context.Context, refreshToken string, all bool) error {
	if refreshToken == "" {
		return ErrInvalidRefreshToken
	}

	hash := cryptox.FingerprintToken(refreshToken)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidRefreshToken
	}
	if err != nil {
		return fmt.Errorf("lookup refresh token: %w", err)
	}

	now := time.Now()
	if all {
		n, err := s.Store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, rt.UserID, now)
		if err != nil {
			return fmt.Errorf("revoke refresh tokens: %w", err)
		}
		slogx.FromContext(ctx).Info("signed out everywhere",
			slog.String("user_id", rt.UserID),
			slog.Int64("revoked", n),
		)
		return nil
	}

	err = s.Store.RefreshTokens().RevokeRefreshToken(ctx, hash, now)
	if err != nil && !errors.Is(err, store.ErrConflict) {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// issue writes the refresh token through st so callers can include it in
// a wider transaction.
func (s *SessionService) issue(
	ctx context.Context,
	st store.Store,
	user domain.User,
	sessionID string,
	amr []string,
	now time.Time,
) (domain.Session, error) {
	accessTTL := s.AccessTTL
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	refreshTTL := s.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	claims := jwtx.NewAccessClaims(jwtx.AccessClaims{
		Subject:     user.ID,
		SessionID:   sessionID,
		AMR:         amr,
		Roles:       user.Roles,
		DefaultRole: user.DefaultRole,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}, s.Issuer, s.Audience, accessTTL, now)

	accessToken, err := s.KeyManager.GetSigner().Sign(claims)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, err
	}

	err = st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.NewAt(now).String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refreshToken),
		SessionID: sessionID,
		AMR:       amr,
		ExpiresAt: now.Add(refreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return domain.Session{}, fmt.Errorf("store refresh token: %w", err)
	}

	return domain.Session{
		AccessToken:          accessToken,
		AccessTokenExpiresIn: accessTTL,
		RefreshToken:         refreshToken,
		User:                 user,
	}, nil
}

// resultLabel turns an error into a low-cardinality metrics label.
func resultLabel(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "error"
}
