package auth_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
)

// TestMFALifecycle tests enrolment, two-step sign-in and deactivation of
// TOTP against a running service.
func TestMFALifecycle(t *testing.T) {
	client := setupAuthContainer(t, nil)
	ctx := t.Context()
	const email = "mfa@example.com"

	session := signUp(t, client, email)
	secret := enableTOTP(t, client, session.AccessToken)

	user, err := client.GetUser(ctx, session.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, user.ActiveMFAType)
	require.Equal(t, authsdk.MFATypeTOTP, *user.ActiveMFAType)

	// Step one yields a ticket instead of a session.
	resp, err := client.SignInEmailPassword(ctx, email, testPassword)
	require.NoError(t, err)
	require.Nil(t, resp.Session)
	require.NotNil(t, resp.MFA)
	require.True(t, strings.HasPrefix(resp.MFA.Ticket, "mfaTotp:"))

	_, err = client.SignInMFATOTP(ctx, resp.MFA.Ticket, "abcdef")
	requireAPIError(t, err, http.StatusUnauthorized, authsdk.CodeUnauthenticated)

	redeemed, err := client.SignInMFATOTP(ctx, resp.MFA.Ticket, totpCode(t, secret))
	require.NoError(t, err)
	require.NotNil(t, redeemed.Session)

	jwks, err := client.GetJWKS(ctx)
	require.NoError(t, err)
	keySet := jwtx.NewKeySet()
	for _, key := range jwks.Keys {
		require.NoError(t, keySet.AddJWK(key))
	}
	claims, err := jwtx.NewVerifier(keySet, testIssuer, nil).Verify(redeemed.Session.AccessToken)
	require.NoError(t, err)
	require.Contains(t, claims.AMR, jwtx.AMRMFA)

	// The ticket is spent.
	_, err = client.SignInMFATOTP(ctx, resp.MFA.Ticket, totpCode(t, secret))
	requireAPIError(t, err, http.StatusUnauthorized, authsdk.CodeUnauthenticated)

	unsupported := "sms"
	err = client.SetActiveMFAType(ctx, session.AccessToken, totpCode(t, secret), &unsupported)
	requireAPIError(t, err, http.StatusBadRequest, "unsupported-mfa-type")

	_, err = client.GenerateTOTP(ctx, session.AccessToken)
	requireAPIError(t, err, http.StatusBadRequest, "mfa-already-active")

	// Deactivate and sign in with the password alone again.
	require.NoError(t, client.SetActiveMFAType(ctx, session.AccessToken, totpCode(t, secret), nil))

	resp, err = client.SignInEmailPassword(ctx, email, testPassword)
	require.NoError(t, err)
	require.NotNil(t, resp.Session)
	require.Nil(t, resp.MFA)
}

// TestMFADisabled verifies that enrolment is refused when MFA is switched
// off for the deployment.
func TestMFADisabled(t *testing.T) {
	client := setupAuthContainer(t, map[string]string{"AUTH_MFA_ENABLED": "false"})

	session := signUp(t, client, "nomfa@example.com")
	_, err := client.GenerateTOTP(t.Context(), session.AccessToken)
	requireAPIError(t, err, http.StatusBadRequest, "disabled-mfa-totp")
}
