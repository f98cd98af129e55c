package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/provider"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
	"golang.org/x/sync/singleflight"
)

const DefaultProviderRefreshTimeout = 10 * time.Second

// TokenRefresher performs the upstream refresh_token grant.
type TokenRefresher interface {
	Refresh(ctx context.Context, providerID, refreshToken string) (provider.Tokens, error)
}

// ProviderTokenService rotates a user's stored OAuth grant at an upstream
// provider on behalf of a trusted backend.
type ProviderTokenService struct {
	Store       store.Store
	Refresher   TokenRefresher
	AdminSecret string
	Timeout     time.Duration // upstream call, defaults to DefaultProviderRefreshTimeout

	group singleflight.Group
}

// Authorize checks a presented admin secret. An unset AdminSecret rejects
// every caller.
func (s *ProviderTokenService) Authorize(adminSecret string) error {
	if !cryptox.EqualSecrets(s.AdminSecret, adminSecret) {
		return ErrUnauthorized
	}
	return nil
}

// Rotate refreshes the (userID, providerID) grant. The access token is
// always replaced; the refresh token only when the provider issued a new
// one. Nothing is written unless the upstream call completed.
func (s *ProviderTokenService) Rotate(ctx context.Context, adminSecret, providerID, userID string) (domain.ProviderToken, error) {
	if err := s.Authorize(adminSecret); err != nil {
		return domain.ProviderToken{}, err
	}

	userID = strings.TrimSpace(userID)
	providerID = strings.ToLower(strings.TrimSpace(providerID))
	if userID == "" {
		return domain.ProviderToken{}, ErrMissingUserID
	}
	if providerID == "" {
		return domain.ProviderToken{}, ErrMissingProviderID
	}

	// Concurrent rotations of one grant share a single upstream call so a
	// provider that rotates refresh tokens never sees the same one twice
	// from this process. The shared call outlives whichever caller started
	// it; each caller only stops waiting when its own context ends.
	ch := s.group.DoChan(userID+"|"+providerID, func() (any, error) {
		return s.rotate(context.WithoutCancel(ctx), providerID, userID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		metrics.ProviderRotations.WithLabelValues(providerID, "cancelled").Inc()
		return domain.ProviderToken{}, fmt.Errorf("rotate provider token: %w", ctx.Err())
	}
	if res.Err != nil {
		metrics.ProviderRotations.WithLabelValues(providerID, resultLabel(res.Err)).Inc()
		return domain.ProviderToken{}, res.Err
	}
	metrics.ProviderRotations.WithLabelValues(providerID, "success").Inc()
	return res.Val.(domain.ProviderToken), nil
}

// rotate runs detached from any single caller; ctx carries values only.
func (s *ProviderTokenService) rotate(ctx context.Context, providerID, userID string) (domain.ProviderToken, error) {
	l := slogx.FromContext(ctx).With(
		slog.String("user_id", userID),
		slog.String("provider", providerID),
	)

	pt, err := s.Store.ProviderTokens().GetProviderToken(ctx, userID, providerID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.ProviderToken{}, ErrProviderTokenNotFound
	}
	if err != nil {
		return domain.ProviderToken{}, fmt.Errorf("get provider token: %w", err)
	}
	if pt.RefreshToken == nil || *pt.RefreshToken == "" {
		return domain.ProviderToken{}, ErrMissingRefreshToken
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultProviderRefreshTimeout
	}
	upCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	tokens, err := s.Refresher.Refresh(upCtx, providerID, *pt.RefreshToken)
	metrics.ProviderRefreshDuration.WithLabelValues(providerID).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, provider.ErrUnknownProvider) {
			return domain.ProviderToken{}, ErrUnknownProvider
		}
		l.Warn("provider refresh failed", slog.Any("error", err))
		return domain.ProviderToken{}, ErrUpstreamRefreshFailed.Wrap(err)
	}
	if tokens.AccessToken == "" {
		return domain.ProviderToken{}, ErrUpstreamRefreshFailed.Wrap(errors.New("empty access token"))
	}

	var newRefresh *string
	if tokens.RefreshToken != "" && tokens.RefreshToken != *pt.RefreshToken {
		newRefresh = &tokens.RefreshToken
	}

	// The grant is spent upstream; it is recorded even if every caller
	// has gone.
	now := time.Now()
	err = s.Store.ProviderTokens().UpdateProviderTokens(
		ctx, userID, providerID, tokens.AccessToken, newRefresh, pt.Revision, now,
	)
	if errors.Is(err, store.ErrConflict) {
		l.Info("provider token rotated concurrently, returning stored tokens")
		latest, err := s.Store.ProviderTokens().GetProviderToken(ctx, userID, providerID)
		if err != nil {
			return domain.ProviderToken{}, fmt.Errorf("reread provider token: %w", err)
		}
		return latest, nil
	}
	if err != nil {
		return domain.ProviderToken{}, fmt.Errorf("store provider token: %w", err)
	}

	pt.AccessToken = tokens.AccessToken
	if newRefresh != nil {
		pt.RefreshToken = newRefresh
	}
	pt.Revision++
	pt.UpdatedAt = now

	l.Info("provider token rotated", slog.Bool("refresh_token_rotated", newRefresh != nil))
	return pt, nil
}
