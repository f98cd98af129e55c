package http

import (
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/gatekeeper/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux     *http.ServeMux
	handler http.Handler

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	limits       httpx.RateLimits
	logger       *slog.Logger
	store        store.Store

	Accounts       *service.AccountService
	SignIn         *service.SignInService
	Tickets        *service.TicketBroker
	Sessions       *service.SessionService
	MFA            *service.MFAService
	ProviderTokens *service.ProviderTokenService
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	limits httpx.RateLimits,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys.KeySet,
		verifier:     keys.Verifier,
		buildVersion: buildVersion,
		limits:       limits,
		logger:       logger,
		store:        st,
	}

	// The metrics middleware must wrap the mux directly to see the matched
	// route pattern.
	r.handler = httpx.Chain(r.Mux,
		slogx.HTTPMiddleware(r.logger),
		httpx.PrometheusMetrics("auth"),
	)

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSignUp()
	r.registerSignIn()
	r.registerMFA()
	r.registerUser()
	r.registerSession()
	r.registerProviderTokens()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Gatekeeper Authentication Service API
//	@version		0.1.0
//	@description	Email and password sign-in with optional TOTP second factor, rotating refresh tokens and upstream OAuth provider token rotation.
//	@description
//	@description				Access tokens are EdDSA (Ed25519) signed JWTs and can be verified using the JWKS endpoint.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/gatekeeper
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
//
//	@securityDefinitions.apikey	AdminSecret
//	@in							header
//	@name						X-Admin-Secret
//	@description				Shared secret for trusted backends.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) registerSignUp() {
	h := &SignUpHandler{Accounts: r.Accounts}

	// Strict: each request costs a password hash.
	r.Mux.Handle("POST /signup/email-password",
		httpx.Chain(h,
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
}

func (r *Router) registerSignIn() {
	h := &SignInHandler{SignIn: r.SignIn, Tickets: r.Tickets}

	// Strict rate limits by IP: both steps accept guessable secrets.
	r.Mux.Handle("POST /signin/email-password",
		httpx.Chain(http.HandlerFunc(h.HandleEmailPassword),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
	r.Mux.Handle("POST /signin/mfa/totp",
		httpx.Chain(http.HandlerFunc(h.HandleMFATOTP),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFA: r.MFA}

	securedGenerate := httpx.Chain(http.HandlerFunc(h.HandleGenerate),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(r.limits.Moderate),
	)

	// Strict by user: the body carries a TOTP code.
	securedSet := httpx.Chain(http.HandlerFunc(h.HandleSetActiveType),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(r.limits.Strict),
	)

	r.Mux.Handle("GET /mfa/totp/generate", securedGenerate)
	r.Mux.Handle("POST /user/mfa", securedSet)
}

func (r *Router) registerUser() {
	h := &UserHandler{Accounts: r.Accounts}

	r.Mux.Handle("GET /user",
		httpx.Chain(http.HandlerFunc(h.HandleGetUser),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.limits.Lenient),
		),
	)
	r.Mux.Handle("POST /user/email/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyEmail),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
}

func (r *Router) registerSession() {
	h := &TokenHandler{Sessions: r.Sessions}

	r.Mux.Handle("POST /token",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
	r.Mux.Handle("POST /signout",
		httpx.Chain(http.HandlerFunc(h.HandleSignOut),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)
}

func (r *Router) registerProviderTokens() {
	h := &ProviderTokensHandler{Rotator: r.ProviderTokens}

	r.Mux.Handle("POST /user/provider-tokens",
		httpx.Chain(h,
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)

	// Probes and scrapes come from inside the cluster; no rate limit.
	r.Mux.Handle("GET /livez", LivezHandler(r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.buildVersion, r.store, r.keys))
	r.Mux.Handle("GET /metrics", promhttp.Handler())
}
