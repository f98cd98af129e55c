package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

// SignInHandler serves both sign-in steps: the password and, for users
// with active MFA, the ticket redemption.
type SignInHandler struct {
	SignIn  *service.SignInService
	Tickets *service.TicketBroker
}

// HandleEmailPassword handles POST /signin/email-password
//
//	@Summary		Sign in with email and password
//	@Description	Verifies the password. Users with active MFA receive a ticket instead of a session; redeem it at /signin/mfa/totp.
//	@Tags			Sign-in
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignInEmailPasswordRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.SessionResponse				"Session or MFA ticket"
//	@Failure		400		{object}	authsdk.APIError					"Invalid request"
//	@Failure		401		{object}	authsdk.APIError					"Invalid credentials, disabled or unverified user"
//	@Failure		429		{object}	authsdk.APIError					"Too many requests"
//	@Router			/signin/email-password [post].
func (h *SignInHandler) HandleEmailPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignInEmailPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.SignIn.SignInEmailPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var resp authsdk.SessionResponse
	if res.Session != nil {
		resp.Session = toSession(*res.Session)
	} else {
		resp.MFA = &authsdk.MFAChallenge{Ticket: res.MFATicket}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleMFATOTP handles POST /signin/mfa/totp
//
//	@Summary		Complete sign-in with a TOTP code
//	@Description	Redeems the ticket from /signin/email-password together with a current TOTP code. A ticket can be redeemed once.
//	@Tags			Sign-in
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignInMFATOTPRequest	true	"Ticket and one-time password"
//	@Success		200		{object}	authsdk.SessionResponse			"Session"
//	@Failure		400		{object}	authsdk.APIError				"Invalid request"
//	@Failure		401		{object}	authsdk.APIError				"Invalid ticket or code"
//	@Failure		429		{object}	authsdk.APIError				"Too many requests"
//	@Router			/signin/mfa/totp [post].
func (h *SignInHandler) HandleMFATOTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignInMFATOTPRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	sess, err := h.Tickets.RedeemTicket(r.Context(), req.Ticket, req.OTP)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{Session: toSession(sess)})
}
