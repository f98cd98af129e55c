package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingRunOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, env.store.Tickets().CreateTicket(ctx, domain.Ticket{
		ID:        "expired-ticket",
		Kind:      domain.TicketMFATOTP,
		TokenHash: "expired",
		UserID:    u.ID,
		ExpiresAt: past,
		CreatedAt: past.Add(-time.Minute),
	}))
	require.NoError(t, env.store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        "expired-refresh",
		UserID:    u.ID,
		TokenHash: "expired",
		SessionID: "sid",
		ExpiresAt: past,
		CreatedAt: past.Add(-time.Minute),
	}))

	live, err := env.sessions.IssueSession(ctx, u, []string{jwtx.AMRPassword})
	require.NoError(t, err)

	hk := NewHousekeepingService(env.store, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour)
	hk.RunOnce(ctx)

	_, err = env.store.RefreshTokens().GetRefreshTokenByHash(ctx, "expired")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = env.sessions.RefreshSession(ctx, live.RefreshToken)
	require.NoError(t, err, "live tokens survive housekeeping")
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	hk := NewHousekeepingService(env.store, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.Equal(t, time.Hour, hk.Interval)

	hk.Start()
	hk.Stop()
}
