package auth_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
)

// defaultRateLimits drops the relaxed limits from baseEnv so the built-in
// profiles apply.
var defaultRateLimits = map[string]string{
	"RATELIMIT_STRICT_PER_MINUTE":   "",
	"RATELIMIT_STRICT_BURST":        "",
	"RATELIMIT_MODERATE_PER_MINUTE": "",
	"RATELIMIT_MODERATE_BURST":      "",
}

// TestRateLimitSignIn verifies that password sign-in is held to the strict
// profile of 10 requests per minute per IP.
func TestRateLimitSignIn(t *testing.T) {
	client := setupAuthContainer(t, defaultRateLimits)

	for range 10 {
		_, err := client.SignInEmailPassword(t.Context(), "nobody@example.com", testPassword)
		requireAPIError(t, err, http.StatusUnauthorized, authsdk.CodeUnauthenticated)
	}

	_, err := client.SignInEmailPassword(t.Context(), "nobody@example.com", testPassword)
	requireAPIError(t, err, http.StatusTooManyRequests, authsdk.CodeTooManyRequests)
}

// TestRateLimitIsPerRoute verifies that exhausting the sign-in bucket does
// not block other routes.
func TestRateLimitIsPerRoute(t *testing.T) {
	client := setupAuthContainer(t, defaultRateLimits)

	for range 11 {
		_, _ = client.SignInEmailPassword(t.Context(), "nobody@example.com", testPassword)
	}

	_, err := client.GetJWKS(t.Context())
	require.NoError(t, err, "JWKS should not share the sign-in bucket")

	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)
}
