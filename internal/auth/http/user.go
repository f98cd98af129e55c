package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

type UserHandler struct {
	Accounts *service.AccountService
}

// HandleGetUser handles GET /user
//
//	@Summary		Get the current user
//	@Tags			User
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.User		"User profile"
//	@Failure		401	{object}	authsdk.APIError	"Invalid or missing access token"
//	@Failure		404	{object}	authsdk.APIError	"User no longer exists"
//	@Router			/user [get].
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Accounts.GetUser(r.Context(), httpx.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUser(user))
}

// HandleVerifyEmail handles POST /user/email/verify
//
//	@Summary		Verify an email address
//	@Description	Consumes the ticket sent at sign-up and marks the address verified.
//	@Tags			User
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyEmailRequest	true	"Verification ticket"
//	@Success		200		{string}	string						"OK"
//	@Failure		400		{object}	authsdk.APIError			"Invalid request"
//	@Failure		401		{object}	authsdk.APIError			"Invalid or expired ticket"
//	@Router			/user/email/verify [post].
func (h *UserHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyEmailRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.Accounts.VerifyEmail(r.Context(), req.Ticket); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w)
}
