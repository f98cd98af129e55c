package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
)

type SignUpHandler struct {
	Accounts *service.AccountService
}

// ServeHTTP handles POST /signup/email-password
//
//	@Summary		Sign up with email and password
//	@Description	Creates an account. A session is returned unless the account is disabled or must verify its email first.
//	@Tags			Sign-up
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignUpEmailPasswordRequest	true	"Credentials and profile options"
//	@Success		200		{object}	authsdk.SessionResponse				"Session, or null when verification is pending"
//	@Failure		400		{object}	authsdk.APIError					"Invalid request"
//	@Failure		409		{object}	authsdk.APIError					"Email already in use"
//	@Failure		429		{object}	authsdk.APIError					"Too many requests"
//	@Router			/signup/email-password [post].
func (h *SignUpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SignUpEmailPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	in := service.SignUpInput{Email: req.Email, Password: req.Password}
	if opts := req.Options; opts != nil {
		in.DisplayName = opts.DisplayName
		in.Locale = opts.Locale
		in.DefaultRole = opts.DefaultRole
		in.Roles = opts.AllowedRoles
		in.Metadata = opts.Metadata
	}

	sess, err := h.Accounts.SignUp(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var resp authsdk.SessionResponse
	if sess != nil {
		resp.Session = toSession(*sess)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
