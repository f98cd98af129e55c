package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignUp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	env.accounts.AllowedRoles = []string{"me", "editor"}

	sess, err := env.accounts.SignUp(ctx, SignUpInput{
		Email:       "  Alice@Example.com ",
		Password:    testPassword,
		DisplayName: "Alice",
		Roles:       []string{"me"},
		Metadata:    map[string]any{"team": "blue"},
	})
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.Equal(t, "alice@example.com", sess.User.Email)
	require.Equal(t, "Alice", sess.User.DisplayName)
	require.Equal(t, "en", sess.User.Locale)
	require.Equal(t, "user", sess.User.DefaultRole)
	require.ElementsMatch(t, []string{"me", "user"}, sess.User.Roles)
	require.Equal(t, "blue", sess.User.Metadata["team"])

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.accounts.SignUp(ctx, SignUpInput{Email: "ALICE@example.com", Password: testPassword})
		require.ErrorIs(t, err, ErrEmailInUse)
	})

	t.Run("requested default role", func(t *testing.T) {
		sess, err := env.accounts.SignUp(ctx, SignUpInput{
			Email:       "dave@example.com",
			Password:    testPassword,
			DefaultRole: "editor",
		})
		require.NoError(t, err)
		require.Equal(t, "editor", sess.User.DefaultRole)
		require.ElementsMatch(t, []string{"editor", "user"}, sess.User.Roles)
	})

	t.Run("role outside allow-list", func(t *testing.T) {
		_, err := env.accounts.SignUp(ctx, SignUpInput{Email: "erin@example.com", Password: testPassword, DefaultRole: "admin"})
		require.ErrorIs(t, err, ErrRoleNotAllowed)

		_, err = env.accounts.SignUp(ctx, SignUpInput{Email: "erin@example.com", Password: testPassword, Roles: []string{"admin"}})
		require.ErrorIs(t, err, ErrRoleNotAllowed)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := env.accounts.SignUp(ctx, SignUpInput{Email: "bob@example.com", Password: "12345678"})
		require.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("bad email", func(t *testing.T) {
		for _, email := range []string{"", "bob", "@example.com", "bob@", "a@b@c"} {
			_, err := env.accounts.SignUp(ctx, SignUpInput{Email: email, Password: testPassword})
			require.ErrorIs(t, err, ErrInvalidEmail, email)
		}
	})
}

func TestSignUpDisabledUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	env.accounts.DisableNewUsers = true

	sess, err := env.accounts.SignUp(ctx, SignUpInput{Email: "carol@example.com", Password: testPassword})
	require.NoError(t, err)
	require.Nil(t, sess)

	u, err := env.store.Users().GetUserByEmail(ctx, "carol@example.com")
	require.NoError(t, err)
	require.True(t, u.Disabled)
}

func TestEmailVerification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	env.accounts.RequireVerifiedEmail = true
	env.signIn.RequireVerifiedEmail = true

	sess, err := env.accounts.SignUp(ctx, SignUpInput{Email: "dave@example.com", Password: testPassword})
	require.NoError(t, err)
	require.Nil(t, sess, "no session before verification")

	_, err = env.signIn.SignInEmailPassword(ctx, "dave@example.com", testPassword)
	require.ErrorIs(t, err, ErrUnverifiedEmail)

	ticket := env.notifier.ticketFor("dave@example.com")
	require.NotEmpty(t, ticket)

	require.ErrorIs(t, env.accounts.VerifyEmail(ctx, "verifyEmail:wrong"), ErrInvalidTicket)
	require.NoError(t, env.accounts.VerifyEmail(ctx, ticket))
	require.ErrorIs(t, env.accounts.VerifyEmail(ctx, ticket), ErrInvalidTicket)

	res, err := env.signIn.SignInEmailPassword(ctx, "dave@example.com", testPassword)
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	require.True(t, res.Session.User.EmailVerified)
}

func TestGetUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "erin@example.com")

	got, err := env.accounts.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)

	_, err = env.accounts.GetUser(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}
