package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/provider"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
	"github.com/stretchr/testify/require"
)

const testAdminSecret = "admin-secret"

type refresherFunc func(ctx context.Context, providerID, refreshToken string) (provider.Tokens, error)

func (f refresherFunc) Refresh(ctx context.Context, providerID, refreshToken string) (provider.Tokens, error) {
	return f(ctx, providerID, refreshToken)
}

func seedProviderToken(t *testing.T, st store.Store, userID, providerID string, refresh *string) {
	t.Helper()
	require.NoError(t, st.ProviderTokens().CreateProviderToken(context.Background(), domain.ProviderToken{
		ID:           idx.New().String(),
		UserID:       userID,
		ProviderID:   providerID,
		AccessToken:  "old-access",
		RefreshToken: refresh,
		CreatedAt:    time.Now(),
	}))
}

func TestRotatePreconditions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("bad admin secret fails before the store", func(t *testing.T) {
		svc := &ProviderTokenService{AdminSecret: testAdminSecret}
		for _, presented := range []string{"", "wrong", testAdminSecret + " "} {
			_, err := svc.Rotate(ctx, presented, "github", "user")
			require.ErrorIs(t, err, ErrUnauthorized)
			require.Equal(t, KindAuthorization, KindOf(err))
		}
	})

	t.Run("unconfigured admin secret rejects everything", func(t *testing.T) {
		svc := &ProviderTokenService{}
		_, err := svc.Rotate(ctx, "", "github", "user")
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("missing ids", func(t *testing.T) {
		svc := &ProviderTokenService{AdminSecret: testAdminSecret}
		_, err := svc.Rotate(ctx, testAdminSecret, "github", " ")
		require.ErrorIs(t, err, ErrMissingUserID)
		_, err = svc.Rotate(ctx, testAdminSecret, "", "user")
		require.ErrorIs(t, err, ErrMissingProviderID)
	})
}

func TestRotate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice@example.com")

	r1 := "refresh-1"
	seedProviderToken(t, env.store, u.ID, "github", &r1)
	seedProviderToken(t, env.store, u.ID, "gitlab", nil)

	var upstream refresherFunc
	svc := &ProviderTokenService{
		Store:       env.store,
		AdminSecret: testAdminSecret,
		Refresher: refresherFunc(func(ctx context.Context, providerID, refreshToken string) (provider.Tokens, error) {
			return upstream(ctx, providerID, refreshToken)
		}),
	}

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Rotate(ctx, testAdminSecret, "google", u.ID)
		require.ErrorIs(t, err, ErrProviderTokenNotFound)
	})

	t.Run("no refresh token stored", func(t *testing.T) {
		_, err := svc.Rotate(ctx, testAdminSecret, "gitlab", u.ID)
		require.ErrorIs(t, err, ErrMissingRefreshToken)
	})

	t.Run("upstream failure writes nothing", func(t *testing.T) {
		upstream = func(context.Context, string, string) (provider.Tokens, error) {
			return provider.Tokens{}, errors.New("invalid_grant")
		}
		_, err := svc.Rotate(ctx, testAdminSecret, "github", u.ID)
		require.ErrorIs(t, err, ErrUpstreamRefreshFailed)
		require.Equal(t, KindUpstream, KindOf(err))

		got, err := env.store.ProviderTokens().GetProviderToken(ctx, u.ID, "github")
		require.NoError(t, err)
		require.Equal(t, "old-access", got.AccessToken)
		require.EqualValues(t, 0, got.Revision)
	})

	t.Run("unknown provider", func(t *testing.T) {
		upstream = func(context.Context, string, string) (provider.Tokens, error) {
			return provider.Tokens{}, provider.ErrUnknownProvider
		}
		_, err := svc.Rotate(ctx, testAdminSecret, "github", u.ID)
		require.ErrorIs(t, err, ErrUnknownProvider)
	})

	t.Run("keeps refresh token when none is returned", func(t *testing.T) {
		upstream = func(_ context.Context, _ string, refreshToken string) (provider.Tokens, error) {
			require.Equal(t, "refresh-1", refreshToken)
			return provider.Tokens{AccessToken: "access-2"}, nil
		}
		got, err := svc.Rotate(ctx, testAdminSecret, "GitHub", u.ID)
		require.NoError(t, err)
		require.Equal(t, "access-2", got.AccessToken)
		require.Equal(t, "refresh-1", *got.RefreshToken)

		stored, err := env.store.ProviderTokens().GetProviderToken(ctx, u.ID, "github")
		require.NoError(t, err)
		require.Equal(t, "access-2", stored.AccessToken)
		require.Equal(t, "refresh-1", *stored.RefreshToken)
	})

	t.Run("replaces refresh token when a new one is returned", func(t *testing.T) {
		upstream = func(context.Context, string, string) (provider.Tokens, error) {
			return provider.Tokens{AccessToken: "access-3", RefreshToken: "refresh-2"}, nil
		}
		got, err := svc.Rotate(ctx, testAdminSecret, "github", u.ID)
		require.NoError(t, err)
		require.Equal(t, "access-3", got.AccessToken)
		require.Equal(t, "refresh-2", *got.RefreshToken)

		stored, err := env.store.ProviderTokens().GetProviderToken(ctx, u.ID, "github")
		require.NoError(t, err)
		require.Equal(t, "refresh-2", *stored.RefreshToken)
		require.Equal(t, got.Revision, stored.Revision)
	})

	t.Run("timeout", func(t *testing.T) {
		svc.Timeout = 20 * time.Millisecond
		t.Cleanup(func() { svc.Timeout = 0 })

		upstream = func(ctx context.Context, _, _ string) (provider.Tokens, error) {
			<-ctx.Done()
			return provider.Tokens{}, ctx.Err()
		}
		_, err := svc.Rotate(ctx, testAdminSecret, "github", u.ID)
		require.ErrorIs(t, err, ErrUpstreamRefreshFailed)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRotateSharesConcurrentCalls(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "bob@example.com")
	r1 := "refresh-1"
	seedProviderToken(t, env.store, u.ID, "github", &r1)

	var calls atomic.Int32
	release := make(chan struct{})
	svc := &ProviderTokenService{
		Store:       env.store,
		AdminSecret: testAdminSecret,
		Refresher: refresherFunc(func(ctx context.Context, _, _ string) (provider.Tokens, error) {
			calls.Add(1)
			<-release
			return provider.Tokens{AccessToken: "shared", RefreshToken: "refresh-2"}, nil
		}),
	}

	const n = 5
	results := make([]domain.ProviderToken, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.Rotate(ctx, testAdminSecret, "github", u.ID)
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond) // let the rest join the flight
	close(release)
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		require.Equal(t, "shared", results[i].AccessToken)
	}
	// Late joiners may start a second flight after the first finished,
	// which then loses nothing: it refreshes with refresh-2.
	require.LessOrEqual(t, calls.Load(), int32(2))
}

func TestRotateOutlivesCancelledCaller(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	u := env.createUser(t, "dave@example.com")
	r1 := "refresh-1"
	seedProviderToken(t, env.store, u.ID, "github", &r1)

	var calls atomic.Int32
	release := make(chan struct{})
	svc := &ProviderTokenService{
		Store:       env.store,
		AdminSecret: testAdminSecret,
		Refresher: refresherFunc(func(ctx context.Context, _, _ string) (provider.Tokens, error) {
			calls.Add(1)
			<-release
			if err := ctx.Err(); err != nil {
				return provider.Tokens{}, err
			}
			return provider.Tokens{AccessToken: "shared", RefreshToken: "refresh-2"}, nil
		}),
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Rotate(firstCtx, testAdminSecret, "github", u.ID)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		tok domain.ProviderToken
		err error
	}
	second := make(chan result, 1)
	go func() {
		tok, err := svc.Rotate(context.Background(), testAdminSecret, "github", u.ID)
		second <- result{tok, err}
	}()
	time.Sleep(20 * time.Millisecond) // let the second caller join the flight

	cancel()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	require.Equal(t, "shared", got.tok.AccessToken)
	require.EqualValues(t, 1, calls.Load())

	stored, err := env.store.ProviderTokens().GetProviderToken(context.Background(), u.ID, "github")
	require.NoError(t, err)
	require.Equal(t, "shared", stored.AccessToken)
	require.Equal(t, "refresh-2", *stored.RefreshToken)
}

func TestRotateLostRaceReturnsStored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "carol@example.com")
	r1 := "refresh-1"
	seedProviderToken(t, env.store, u.ID, "github", &r1)

	winner := "refresh-winner"
	svc := &ProviderTokenService{
		Store:       env.store,
		AdminSecret: testAdminSecret,
		Refresher: refresherFunc(func(ctx context.Context, _, _ string) (provider.Tokens, error) {
			// Another instance rotates while our upstream call is in flight.
			err := env.store.ProviderTokens().UpdateProviderTokens(ctx, u.ID, "github", "access-winner", &winner, 0, time.Now())
			require.NoError(t, err)
			return provider.Tokens{AccessToken: "access-loser", RefreshToken: "refresh-loser"}, nil
		}),
	}

	got, err := svc.Rotate(ctx, testAdminSecret, "github", u.ID)
	require.NoError(t, err)
	require.Equal(t, "access-winner", got.AccessToken)
	require.Equal(t, "refresh-winner", *got.RefreshToken)
}
