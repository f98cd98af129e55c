package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// MFAHandler handles the authenticated MFA management endpoints.
type MFAHandler struct {
	MFA *service.MFAService
}

// HandleGenerate handles GET /mfa/totp/generate
//
//	@Summary		Generate a TOTP secret
//	@Description	Creates and stores a new TOTP secret for the authenticated user. MFA is not active until confirmed via POST /user/mfa.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TOTPGenerateResponse	"Secret and otpauth:// provisioning URI"
//	@Failure		400	{object}	authsdk.APIError				"MFA already active or disabled"
//	@Failure		401	{object}	authsdk.APIError				"Invalid or missing access token"
//	@Failure		500	{object}	authsdk.APIError				"Internal server error"
//	@Router			/mfa/totp/generate [get].
func (h *MFAHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	secret, err := h.MFA.GenerateSecret(r.Context(), httpx.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPGenerateResponse{
		TOTPSecret:      secret.Secret,
		ProvisioningURI: secret.ProvisioningURI,
	})
}

// HandleSetActiveType handles POST /user/mfa
//
//	@Summary		Activate or deactivate MFA
//	@Description	activeMfaType "totp" activates TOTP using the secret from /mfa/totp/generate. null or "" deactivates it. Both require a current code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.UserMFARequest	true	"Code and requested MFA type"
//	@Success		200		{string}	string					"OK"
//	@Failure		400		{object}	authsdk.APIError		"Unsupported type, already active or no active MFA"
//	@Failure		401		{object}	authsdk.APIError		"Invalid code or access token"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/user/mfa [post].
func (h *MFAHandler) HandleSetActiveType(w http.ResponseWriter, r *http.Request) {
	var req authsdk.UserMFARequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.MFA.SetActiveMFAType(r.Context(), httpx.UserID(r.Context()), req.ActiveMFAType, req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w)
}
