package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
)

// AdminSecretHeader carries the pre-shared administrative secret.
const AdminSecretHeader = "X-Admin-Secret"

// Client calls the auth service. Methods taking an accessToken send it as a
// Bearer token; the rest are unauthenticated.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// AdminSecret is sent on administrative calls only.
	AdminSecret string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) SignUpEmailPassword(ctx context.Context, req SignUpEmailPasswordRequest) (*SessionResponse, error) {
	var out SessionResponse
	return &out, c.do(ctx, http.MethodPost, "/signup/email-password", "", nil, req, &out)
}

func (c *Client) SignInEmailPassword(ctx context.Context, email, password string) (*SessionResponse, error) {
	var out SessionResponse
	req := SignInEmailPasswordRequest{Email: email, Password: password}
	return &out, c.do(ctx, http.MethodPost, "/signin/email-password", "", nil, req, &out)
}

func (c *Client) SignInMFATOTP(ctx context.Context, ticket, otp string) (*SessionResponse, error) {
	var out SessionResponse
	req := SignInMFATOTPRequest{Ticket: ticket, OTP: otp}
	return &out, c.do(ctx, http.MethodPost, "/signin/mfa/totp", "", nil, req, &out)
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	var out Session
	req := RefreshTokenRequest{RefreshToken: refreshToken}
	return &out, c.do(ctx, http.MethodPost, "/token", "", nil, req, &out)
}

func (c *Client) SignOut(ctx context.Context, refreshToken string, all bool) error {
	req := SignOutRequest{RefreshToken: refreshToken, All: all}
	return c.do(ctx, http.MethodPost, "/signout", "", nil, req, nil)
}

func (c *Client) VerifyEmail(ctx context.Context, ticket string) error {
	return c.do(ctx, http.MethodPost, "/user/email/verify", "", nil, VerifyEmailRequest{Ticket: ticket}, nil)
}

func (c *Client) GenerateTOTP(ctx context.Context, accessToken string) (*TOTPGenerateResponse, error) {
	var out TOTPGenerateResponse
	return &out, c.do(ctx, http.MethodGet, "/mfa/totp/generate", accessToken, nil, nil, &out)
}

// SetActiveMFAType activates ("totp") or deactivates (nil or "") MFA.
func (c *Client) SetActiveMFAType(ctx context.Context, accessToken, code string, mfaType *string) error {
	req := UserMFARequest{Code: code, ActiveMFAType: mfaType}
	return c.do(ctx, http.MethodPost, "/user/mfa", accessToken, nil, req, nil)
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var out User
	return &out, c.do(ctx, http.MethodGet, "/user", accessToken, nil, nil, &out)
}

// RotateProviderTokens asks the service to refresh a user's upstream OAuth
// tokens. Requires AdminSecret.
func (c *Client) RotateProviderTokens(ctx context.Context, providerID, userID string) (*ProviderTokensResponse, error) {
	var out ProviderTokensResponse
	headers := map[string]string{AdminSecretHeader: c.AdminSecret}
	req := ProviderTokensRequest{ProviderID: providerID, UserID: userID}
	return &out, c.do(ctx, http.MethodPost, "/user/provider-tokens", "", headers, req, &out)
}

// GetJWKS fetches the keys that verify access tokens.
func (c *Client) GetJWKS(ctx context.Context) (*jwtx.JWKS, error) {
	var out jwtx.JWKS
	return &out, c.do(ctx, http.MethodGet, "/.well-known/jwks.json", "", nil, nil, &out)
}

func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	return &out, c.do(ctx, http.MethodGet, "/livez", "", nil, nil, &out)
}

func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	return &out, c.do(ctx, http.MethodGet, "/readyz", "", nil, nil, &out)
}

// do sends in as JSON and decodes a 200 response into out. Non-200
// responses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path, accessToken string, headers map[string]string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
