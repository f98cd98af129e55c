package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

func strPtr(s string) *string { return &s }

func TestMFAGenerateThenActivate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")

	secret, err := env.mfa.GenerateSecret(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, secret.Secret)
	require.True(t, strings.HasPrefix(secret.ProvisioningURI, "otpauth://totp/"))
	require.Contains(t, secret.ProvisioningURI, "issuer=Gatekeeper")

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MFANone, stored.ActiveMFAType, "generating a secret does not activate")
	require.Equal(t, secret.Secret, *stored.TOTPSecret)

	require.NoError(t, env.mfa.Activate(ctx, u.ID, currentCode(t, secret.Secret)))

	stored, err = env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MFATOTP, stored.ActiveMFAType)

	t.Run("already active", func(t *testing.T) {
		require.ErrorIs(t, env.mfa.Activate(ctx, u.ID, currentCode(t, secret.Secret)), ErrMFAAlreadyActive)
		_, err := env.mfa.GenerateSecret(ctx, u.ID)
		require.ErrorIs(t, err, ErrMFAAlreadyActive)
	})
}

func TestMFAActivateRejectsForeignSecret(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "bob@example.com")

	_, err := env.mfa.GenerateSecret(ctx, u.ID)
	require.NoError(t, err)

	foreign, err := totp.Generate(totp.GenerateOpts{Issuer: "Other", AccountName: "x"})
	require.NoError(t, err)

	err = env.mfa.Activate(ctx, u.ID, currentCode(t, foreign.Secret()))
	require.ErrorIs(t, err, ErrInvalidCode)

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MFANone, stored.ActiveMFAType)
}

func TestMFAActivateWithoutSecret(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	u := env.createUser(t, "carol@example.com")

	err := env.mfa.Activate(context.Background(), u.ID, "123456")
	require.ErrorIs(t, err, ErrMissingTOTPSecret)
	require.Equal(t, KindInternal, KindOf(err))
}

func TestMFAMissingUserIsInternal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	ghost := idx.New().String()

	_, err := env.mfa.GenerateSecret(ctx, ghost)
	require.ErrorIs(t, err, ErrAuthenticatedNoUser)
	require.Equal(t, KindInternal, KindOf(err))

	require.ErrorIs(t, env.mfa.Activate(ctx, ghost, "123456"), ErrAuthenticatedNoUser)
	require.ErrorIs(t, env.mfa.SetActiveMFAType(ctx, ghost, nil, "123456"), ErrAuthenticatedNoUser)
}

func TestMFADeactivate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "dave@example.com")

	require.ErrorIs(t, env.mfa.Deactivate(ctx, u.ID, "123456"), ErrNoActiveMFA)

	secret := env.enableTOTP(t, u.ID)

	require.ErrorIs(t, env.mfa.Deactivate(ctx, u.ID, badCode), ErrInvalidCode)
	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MFATOTP, stored.ActiveMFAType, "failed deactivation changes nothing")

	require.NoError(t, env.mfa.Deactivate(ctx, u.ID, currentCode(t, secret)))
	stored, err = env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MFANone, stored.ActiveMFAType)
	require.NotNil(t, stored.TOTPSecret, "secret is retained")

	t.Run("reactivate with the retained secret", func(t *testing.T) {
		require.NoError(t, env.mfa.Activate(ctx, u.ID, currentCode(t, secret)))
	})
}

func TestMFASetActiveMFAType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "erin@example.com")

	t.Run("unsupported type fails before the store", func(t *testing.T) {
		err := env.mfa.SetActiveMFAType(ctx, "no-such-user", strPtr("incorrect"), "123456")
		require.ErrorIs(t, err, ErrUnsupportedMFAType)
		require.Equal(t, KindValidation, KindOf(err))
	})

	secret, err := env.mfa.GenerateSecret(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, env.mfa.SetActiveMFAType(ctx, u.ID, strPtr("totp"), currentCode(t, secret.Secret)))
	require.ErrorIs(t, env.mfa.SetActiveMFAType(ctx, u.ID, strPtr("totp"), currentCode(t, secret.Secret)), ErrMFAAlreadyActive)

	require.NoError(t, env.mfa.SetActiveMFAType(ctx, u.ID, strPtr(""), currentCode(t, secret.Secret)))
	require.ErrorIs(t, env.mfa.SetActiveMFAType(ctx, u.ID, nil, currentCode(t, secret.Secret)), ErrNoActiveMFA)
}

func TestMFADisabledToggle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "frank@example.com")
	secret := env.enableTOTP(t, u.ID)

	env.mfa.Disabled = true

	_, err := env.mfa.GenerateSecret(ctx, u.ID)
	require.ErrorIs(t, err, ErrMFADisabled)
	require.ErrorIs(t, env.mfa.Activate(ctx, u.ID, currentCode(t, secret)), ErrMFADisabled)
	require.NoError(t, env.mfa.Deactivate(ctx, u.ID, currentCode(t, secret)))
}

func TestMFASealedSecrets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)

	box, err := cryptox.NewSecretBox([]byte("totp-key"))
	require.NoError(t, err)
	env.mfa.Secrets = box

	u := env.createUser(t, "gina@example.com")
	secret, err := env.mfa.GenerateSecret(ctx, u.ID)
	require.NoError(t, err)

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(*stored.TOTPSecret, "enc:v1:"))
	require.NotContains(t, *stored.TOTPSecret, secret.Secret)

	require.NoError(t, env.mfa.Activate(ctx, u.ID, currentCode(t, secret.Secret)))

	t.Run("sealed secret without key", func(t *testing.T) {
		env.mfa.Secrets = nil
		stored, err := env.store.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		err = env.mfa.VerifyCode(ctx, stored, currentCode(t, secret.Secret))
		require.ErrorIs(t, err, ErrMissingTOTPSecret)
	})
}

func TestMFAConcurrentActivation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "hank@example.com")

	secret, err := env.mfa.GenerateSecret(ctx, u.ID)
	require.NoError(t, err)
	code := currentCode(t, secret.Secret)

	const n = 6
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = env.mfa.Activate(ctx, u.ID, code)
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, ErrMFAAlreadyActive)
	}
	require.Equal(t, 1, ok)

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MFATOTP, stored.ActiveMFAType)
	require.NotNil(t, stored.TOTPSecret)
}
