package provider

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeToken(w http.ResponseWriter, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func newRefresher(t *testing.T, tokenURL string, breaker BreakerConfig) *OAuth2Refresher {
	t.Helper()
	r, err := NewOAuth2Refresher(Options{
		Providers: []Config{{ID: "acme", ClientID: "cid", ClientSecret: "csecret", TokenURL: tokenURL}},
		Breaker:   breaker,
	})
	require.NoError(t, err)
	return r
}

func TestRefreshRotatesTokens(t *testing.T) {
	t.Parallel()

	srv := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		require.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		writeToken(w, map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})

	r := newRefresher(t, srv.URL, DefaultBreakerConfig())
	tok, err := r.Refresh(context.Background(), "acme", "old-refresh")
	require.NoError(t, err)
	require.Equal(t, "new-access", tok.AccessToken)
	require.Equal(t, "new-refresh", tok.RefreshToken)
	require.WithinDuration(t, time.Now().Add(time.Hour), tok.Expiry, time.Minute)
}

func TestRefreshWithoutNewRefreshToken(t *testing.T) {
	t.Parallel()

	srv := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, map[string]any{"access_token": "new-access", "token_type": "Bearer"})
	})

	r := newRefresher(t, srv.URL, DefaultBreakerConfig())
	tok, err := r.Refresh(context.Background(), "acme", "old-refresh")
	require.NoError(t, err)
	require.Equal(t, "new-access", tok.AccessToken)
	require.Equal(t, "old-refresh", tok.RefreshToken)
}

func TestRefreshErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown provider", func(t *testing.T) {
		r := newRefresher(t, "http://127.0.0.1:1", DefaultBreakerConfig())
		_, err := r.Refresh(context.Background(), "nope", "x")
		require.ErrorIs(t, err, ErrUnknownProvider)
	})

	t.Run("invalid grant", func(t *testing.T) {
		srv := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		})
		r := newRefresher(t, srv.URL, DefaultBreakerConfig())
		_, err := r.Refresh(context.Background(), "acme", "revoked")
		require.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
		r := newRefresher(t, srv.URL, DefaultBreakerConfig())
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := r.Refresh(ctx, "acme", "x")
		require.Error(t, err)
	})
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := tokenServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	r := newRefresher(t, srv.URL, BreakerConfig{
		MaxRequests:  1,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  2,
	})

	for range 2 {
		_, err := r.Refresh(context.Background(), "acme", "x")
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, r.providers["acme"].transport.State())

	_, err := r.Refresh(context.Background(), "acme", "x")
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.EqualValues(t, 2, hits.Load(), "open breaker must not reach the upstream")
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestBreakerIgnoresCancelledRequests(t *testing.T) {
	t.Parallel()

	cfg := BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureRatio: 0.5, MinRequests: 2}
	req, err := http.NewRequest(http.MethodPost, "http://provider.invalid/token", nil)
	require.NoError(t, err)

	t.Run("cancelled callers", func(t *testing.T) {
		var hits atomic.Int32
		tr := newBreakerTransport("acme", roundTripperFunc(func(*http.Request) (*http.Response, error) {
			hits.Add(1)
			return nil, context.Canceled
		}), cfg, slog.Default())

		for range 5 {
			_, err := tr.RoundTrip(req)
			require.ErrorIs(t, err, context.Canceled)
		}
		require.Equal(t, gobreaker.StateClosed, tr.State())
		require.EqualValues(t, 5, hits.Load())
	})

	t.Run("transport failures still trip", func(t *testing.T) {
		tr := newBreakerTransport("acme", roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}), cfg, slog.Default())

		for range 2 {
			_, err := tr.RoundTrip(req)
			require.Error(t, err)
		}
		require.Equal(t, gobreaker.StateOpen, tr.State())

		_, err := tr.RoundTrip(req)
		require.ErrorIs(t, err, ErrCircuitOpen)
	})
}

func TestNewOAuth2Refresher(t *testing.T) {
	t.Parallel()

	r, err := NewOAuth2Refresher(Options{Providers: []Config{
		{ID: "GitHub", ClientID: "a"},
		{ID: "custom", TokenURL: "https://id.example.com/token"},
	}})
	require.NoError(t, err)
	require.Equal(t, []string{"custom", "github"}, r.Providers())

	_, err = NewOAuth2Refresher(Options{Providers: []Config{{ID: "custom"}}})
	require.Error(t, err)
}
