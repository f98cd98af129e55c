package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// TokenHandler handles refresh-token exchange and revocation.
type TokenHandler struct {
	Sessions *service.SessionService
}

// HandleRefresh handles POST /token
//
//	@Summary		Refresh a session
//	@Description	Exchanges a refresh token for a new access token and a new refresh token. The presented token is revoked.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshTokenRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.Session				"New session"
//	@Failure		400		{object}	authsdk.APIError			"Invalid request"
//	@Failure		401		{object}	authsdk.APIError			"Invalid, expired or revoked refresh token"
//	@Router			/token [post].
func (h *TokenHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshTokenRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	sess, err := h.Sessions.RefreshSession(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSession(sess))
}

// HandleSignOut handles POST /signout
//
//	@Summary		Sign out
//	@Description	Revokes the refresh token, or every refresh token of its user when all is true.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignOutRequest	true	"Refresh token"
//	@Success		200		{string}	string					"OK"
//	@Failure		400		{object}	authsdk.APIError		"Invalid request"
//	@Failure		401		{object}	authsdk.APIError		"Unknown refresh token"
//	@Router			/signout [post].
func (h *TokenHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignOutRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.Sessions.SignOut(r.Context(), req.RefreshToken, req.All); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w)
}
