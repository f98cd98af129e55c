package service

import (
	"context"
	"sync"
	"testing"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite/sqlitetest"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testPassword = "password-1234"

// badCode has the right length but can never equal a numeric TOTP.
const badCode = "abcdef"

type testEnv struct {
	store    *sqlite.Store
	keys     *jwtx.KeyManager
	notifier *captureNotifier

	sessions *SessionService
	mfa      *MFAService
	tickets  *TicketBroker
	signIn   *SignInService
	accounts *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st := sqlitetest.New(t)
	hasher := cryptox.NewHasher("test-pepper")

	keys, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Issuer:   "https://auth.test",
		Audience: []string{"test"},
		NumKeys:  1,
	})
	require.NoError(t, err)

	sessions := &SessionService{
		KeyManager: keys,
		Store:      st,
		Issuer:     "https://auth.test",
		Audience:   []string{"test"},
	}
	mfa := &MFAService{Store: st, Issuer: "Gatekeeper"}
	tickets := &TicketBroker{Store: st, MFA: mfa, Sessions: sessions}
	notifier := &captureNotifier{}

	return &testEnv{
		store:    st,
		keys:     keys,
		notifier: notifier,
		sessions: sessions,
		mfa:      mfa,
		tickets:  tickets,
		signIn: &SignInService{
			Verifier: &CredentialVerifier{Store: st, Hasher: hasher},
			Tickets:  tickets,
			Sessions: sessions,
		},
		accounts: &AccountService{
			Store:    st,
			Hasher:   hasher,
			Sessions: sessions,
			Notifier: notifier,
		},
	}
}

// createUser signs up email with testPassword and returns the stored user.
func (e *testEnv) createUser(t *testing.T, email string) domain.User {
	t.Helper()
	ctx := context.Background()

	_, err := e.accounts.SignUp(ctx, SignUpInput{Email: email, Password: testPassword})
	require.NoError(t, err)

	u, err := e.store.Users().GetUserByEmail(ctx, email)
	require.NoError(t, err)
	return u
}

// enableTOTP runs GenerateSecret and Activate and returns the plaintext secret.
func (e *testEnv) enableTOTP(t *testing.T, userID string) string {
	t.Helper()
	ctx := context.Background()

	secret, err := e.mfa.GenerateSecret(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, e.mfa.Activate(ctx, userID, currentCode(t, secret.Secret)))
	return secret.Secret
}

type captureNotifier struct {
	mu      sync.Mutex
	tickets map[string]string
}

func (n *captureNotifier) SendEmailVerification(_ context.Context, email, ticket string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.tickets == nil {
		n.tickets = map[string]string{}
	}
	n.tickets[email] = ticket
	return nil
}

func (n *captureNotifier) ticketFor(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tickets[email]
}
