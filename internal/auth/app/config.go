package app

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/provider"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// providerEnvPrefix starts the per-provider variables, e.g.
// AUTH_PROVIDER_GITHUB_CLIENT_ID.
const providerEnvPrefix = "AUTH_PROVIDER_"

var providerEnvSuffixes = []string{"_CLIENT_ID", "_CLIENT_SECRET", "_TOKEN_URL"}

type Config struct {
	Issuer       string   `env:"AUTH_ISSUER" envDefault:"gatekeeper"`
	Audience     []string `env:"AUTH_AUDIENCE" envSeparator:","`
	DatabaseFile string   `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	PepperFile   string   `env:"AUTH_PEPPER_FILE" envDefault:"pepper"`

	// SigningKeyFiles are Ed25519 PEM keys shared by every instance. When
	// empty, NumKeys ephemeral keys are generated at start-up.
	SigningKeyFiles []string `env:"AUTH_SIGNING_KEY_FILE" envSeparator:","`
	NumKeys         int      `env:"AUTH_SIGNING_KEYS" envDefault:"3"`

	// TOTPKeyFile enables sealing of stored TOTP secrets.
	TOTPKeyFile string `env:"AUTH_TOTP_KEY_FILE"`
	AdminSecret string `env:"AUTH_ADMIN_SECRET"`

	MFAEnabled   bool          `env:"AUTH_MFA_ENABLED" envDefault:"true"`
	TOTPIssuer   string        `env:"AUTH_TOTP_ISSUER" envDefault:"Gatekeeper"`
	TOTPPeriod   uint          `env:"AUTH_TOTP_PERIOD" envDefault:"30"`
	TOTPSkew     uint          `env:"AUTH_TOTP_SKEW" envDefault:"1"`
	MFATicketTTL time.Duration `env:"AUTH_MFA_TICKET_TTL" envDefault:"5m"`

	AccessTokenTTL  time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" envDefault:"720h"`

	EmailVerificationRequired bool          `env:"AUTH_EMAIL_VERIFICATION_REQUIRED"`
	EmailVerificationTTL      time.Duration `env:"AUTH_EMAIL_VERIFICATION_TTL" envDefault:"24h"`
	DisableNewUsers           bool          `env:"AUTH_DISABLE_NEW_USERS"`
	DefaultRole               string        `env:"AUTH_DEFAULT_ROLE" envDefault:"user"`
	AllowedRoles              []string      `env:"AUTH_ALLOWED_ROLES" envSeparator:","`

	ProviderRefreshTimeout time.Duration     `env:"AUTH_PROVIDER_REFRESH_TIMEOUT" envDefault:"10s"`
	Providers              []provider.Config `env:"-"`

	RateLimits RateLimitsConfig

	Env                  string        `env:"ENV" envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// RateLimitsConfig overrides the httpx.DefaultRateLimits profiles.
type RateLimitsConfig struct {
	Strict   RateLimitConfig `envPrefix:"RATELIMIT_STRICT_"`
	Moderate RateLimitConfig `envPrefix:"RATELIMIT_MODERATE_"`
	Lenient  RateLimitConfig `envPrefix:"RATELIMIT_LENIENT_"`
}

type RateLimitConfig struct {
	PerMinute int `env:"PER_MINUTE"`
	Burst     int `env:"BURST"`
}

func (c RateLimitConfig) limit() httpx.RateLimitConfig {
	return httpx.RateLimitConfig{RequestsPerWindow: c.PerMinute, Window: time.Minute, Burst: c.Burst}
}

// HTTPRateLimits converts the configured profiles for the router.
func (c RateLimitsConfig) HTTPRateLimits() httpx.RateLimits {
	return httpx.RateLimits{
		Strict:   c.Strict.limit(),
		Moderate: c.Moderate.limit(),
		Lenient:  c.Lenient.limit(),
	}
}

// LoadConfig reads the configuration from the process environment.
func LoadConfig() (Config, error) {
	return loadConfig(environMap(os.Environ()))
}

func loadConfig(environ map[string]string) (Config, error) {
	defaults := httpx.DefaultRateLimits()
	cfg := Config{
		RateLimits: RateLimitsConfig{
			Strict:   RateLimitConfig{PerMinute: defaults.Strict.RequestsPerWindow, Burst: defaults.Strict.Burst},
			Moderate: RateLimitConfig{PerMinute: defaults.Moderate.RequestsPerWindow, Burst: defaults.Moderate.Burst},
			Lenient:  RateLimitConfig{PerMinute: defaults.Lenient.RequestsPerWindow, Burst: defaults.Lenient.Burst},
		},
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	providers, err := loadProviders(environ)
	if err != nil {
		return Config{}, err
	}
	cfg.Providers = providers

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type providerEnv struct {
	ClientID     string `env:"CLIENT_ID,notEmpty"`
	ClientSecret string `env:"CLIENT_SECRET"`
	TokenURL     string `env:"TOKEN_URL"`
}

// loadProviders collects every AUTH_PROVIDER_<NAME>_* group. Whether a
// provider without TOKEN_URL is known is checked by provider.NewOAuth2Refresher.
func loadProviders(environ map[string]string) ([]provider.Config, error) {
	var names []string
	for key := range environ {
		rest, ok := strings.CutPrefix(key, providerEnvPrefix)
		if !ok {
			continue
		}
		for _, suffix := range providerEnvSuffixes {
			if name, ok := strings.CutSuffix(rest, suffix); ok && name != "" && !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)

	providers := make([]provider.Config, 0, len(names))
	for _, name := range names {
		var pe providerEnv
		err := env.ParseWithOptions(&pe, env.Options{
			Environment: environ,
			Prefix:      providerEnvPrefix + name + "_",
		})
		if err != nil {
			return nil, fmt.Errorf("parse provider %s: %w", name, err)
		}
		providers = append(providers, provider.Config{
			ID:           strings.ToLower(name),
			ClientID:     pe.ClientID,
			ClientSecret: pe.ClientSecret,
			TokenURL:     pe.TokenURL,
		})
	}
	return providers, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.TOTPPeriod == 0 {
		errs = append(errs, errors.New("AUTH_TOTP_PERIOD must be positive"))
	}
	if c.MFATicketTTL <= 0 {
		errs = append(errs, errors.New("AUTH_MFA_TICKET_TTL must be positive"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.ProviderRefreshTimeout <= 0 {
		errs = append(errs, errors.New("AUTH_PROVIDER_REFRESH_TIMEOUT must be positive"))
	}
	if len(c.Providers) > 0 && c.AdminSecret == "" {
		errs = append(errs, errors.New("AUTH_ADMIN_SECRET is required when providers are configured"))
	}
	for name, rl := range map[string]RateLimitConfig{
		"STRICT":   c.RateLimits.Strict,
		"MODERATE": c.RateLimits.Moderate,
		"LENIENT":  c.RateLimits.Lenient,
	} {
		if rl.PerMinute <= 0 || rl.Burst <= 0 {
			errs = append(errs, fmt.Errorf("RATELIMIT_%s_PER_MINUTE and RATELIMIT_%s_BURST must be positive", name, name))
		}
	}
	return errors.Join(errs...)
}

func environMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}
