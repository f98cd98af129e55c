package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestParseMFAType(t *testing.T) {
	for in, want := range map[string]domain.MFAType{"": domain.MFANone, "totp": domain.MFATOTP} {
		got, err := domain.ParseMFAType(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	for _, bad := range []string{"incorrect", "TOTP", "sms", " totp"} {
		_, err := domain.ParseMFAType(bad)
		require.ErrorIs(t, err, domain.ErrUnknownMFAType, bad)
	}
}

func TestTicketLive(t *testing.T) {
	now := time.Now()
	consumed := now.Add(-time.Second)

	require.True(t, domain.Ticket{ExpiresAt: now.Add(time.Minute)}.Live(now))
	require.False(t, domain.Ticket{ExpiresAt: now}.Live(now))
	require.False(t, domain.Ticket{ExpiresAt: now.Add(time.Minute), ConsumedAt: &consumed}.Live(now))
}

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Now()
	revoked := now

	require.True(t, domain.RefreshToken{ExpiresAt: now.Add(time.Hour)}.Usable(now))
	require.False(t, domain.RefreshToken{ExpiresAt: now.Add(-time.Hour)}.Usable(now))
	require.False(t, domain.RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}.Usable(now))
}
