// Package provider refreshes delegated OAuth grants at upstream identity
// providers using the refresh_token grant.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var ErrUnknownProvider = errors.New("provider: unknown provider")

// Tokens is the result of a refresh grant. RefreshToken equals the one
// presented when the provider did not issue a new one.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
}

// Config registers one provider. TokenURL overrides the well-known endpoint
// and is required for providers not in WellKnown.
type Config struct {
	ID           string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// WellKnown maps provider ids to their published OAuth endpoints.
var WellKnown = map[string]oauth2.Endpoint{
	"bitbucket": endpoints.Bitbucket,
	"facebook":  endpoints.Facebook,
	"github":    endpoints.GitHub,
	"gitlab":    endpoints.GitLab,
	"google":    endpoints.Google,
	"linkedin":  endpoints.LinkedIn,
	"spotify":   endpoints.Spotify,
	"strava":    endpoints.Strava,
	"twitch":    endpoints.Twitch,
}

type registered struct {
	cfg       *oauth2.Config
	client    *http.Client
	transport *breakerTransport
}

// OAuth2Refresher performs refresh grants through golang.org/x/oauth2 with
// a circuit breaker per provider.
type OAuth2Refresher struct {
	providers map[string]registered
}

type Options struct {
	Providers []Config
	Breaker   BreakerConfig // zero value means DefaultBreakerConfig
	Transport http.RoundTripper // defaults to http.DefaultTransport
	Logger    *slog.Logger
}

func NewOAuth2Refresher(opts Options) (*OAuth2Refresher, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Breaker == (BreakerConfig{}) {
		opts.Breaker = DefaultBreakerConfig()
	}

	r := &OAuth2Refresher{providers: make(map[string]registered, len(opts.Providers))}
	for _, p := range opts.Providers {
		id := strings.ToLower(strings.TrimSpace(p.ID))
		if id == "" {
			return nil, errors.New("provider: empty provider id")
		}

		endpoint, ok := WellKnown[id]
		if p.TokenURL != "" {
			endpoint = oauth2.Endpoint{TokenURL: p.TokenURL}
		} else if !ok {
			return nil, fmt.Errorf("provider %q: token url is required", id)
		}

		transport := newBreakerTransport(id, opts.Transport, opts.Breaker, logger)
		r.providers[id] = registered{
			cfg: &oauth2.Config{
				ClientID:     p.ClientID,
				ClientSecret: p.ClientSecret,
				Endpoint:     endpoint,
			},
			client:    &http.Client{Transport: transport},
			transport: transport,
		}
	}
	return r, nil
}

// Providers returns the registered provider ids, sorted.
func (r *OAuth2Refresher) Providers() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Refresh exchanges refreshToken at providerID's token endpoint. The call
// is bounded by ctx.
func (r *OAuth2Refresher) Refresh(ctx context.Context, providerID, refreshToken string) (Tokens, error) {
	p, ok := r.providers[providerID]
	if !ok {
		return Tokens{}, fmt.Errorf("%w: %q", ErrUnknownProvider, providerID)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return Tokens{}, fmt.Errorf("refresh %s: %w", providerID, err)
	}

	return Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}, nil
}
