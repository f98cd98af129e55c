package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

type ProviderTokensHandler struct {
	Rotator *service.ProviderTokenService
}

// ServeHTTP handles POST /user/provider-tokens
//
//	@Summary		Rotate a user's provider tokens
//	@Description	Refreshes the stored OAuth grant of a user at an upstream provider. The refresh token is only replaced when the provider issues a new one.
//	@Tags			Provider tokens
//	@Security		AdminSecret
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ProviderTokensRequest	true	"Provider and user"
//	@Success		200		{object}	authsdk.ProviderTokensResponse	"Rotated tokens"
//	@Failure		400		{object}	authsdk.APIError				"Missing userId or providerId, or no refresh token stored"
//	@Failure		401		{object}	authsdk.APIError				"Incorrect admin secret"
//	@Failure		404		{object}	authsdk.APIError				"No grant stored for this user and provider"
//	@Failure		502		{object}	authsdk.APIError				"Provider refused or failed the refresh"
//	@Router			/user/provider-tokens [post].
func (h *ProviderTokensHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The caller is authenticated before its body is looked at.
	secret := r.Header.Get(authsdk.AdminSecretHeader)
	if err := h.Rotator.Authorize(secret); err != nil {
		writeError(w, r, err)
		return
	}

	var req authsdk.ProviderTokensRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	tok, err := h.Rotator.Rotate(r.Context(), secret, req.ProviderID, req.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := authsdk.ProviderTokensResponse{
		ProviderID:  tok.ProviderID,
		AccessToken: tok.AccessToken,
		UpdatedAt:   tok.UpdatedAt.UTC(),
	}
	if tok.RefreshToken != nil {
		resp.RefreshToken = *tok.RefreshToken
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
