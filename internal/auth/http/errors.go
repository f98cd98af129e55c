package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/service"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

// apiError maps a service failure onto the wire error. This is the only
// place that knows about HTTP status codes.
func apiError(err error) *authsdk.APIError {
	var se *service.Error
	if !errors.As(err, &se) {
		return authsdk.ErrInternal
	}

	switch se.Kind {
	case service.KindValidation:
		return authsdk.NewAPIError(http.StatusBadRequest, se.Code, se.Message)
	case service.KindAuthentication:
		// One body for bad credentials, codes, tickets and refresh tokens.
		return authsdk.ErrUnauthenticated
	case service.KindAuthorization:
		return authsdk.NewAPIError(http.StatusUnauthorized, se.Code, se.Message)
	case service.KindConflict:
		if errors.Is(err, service.ErrEmailInUse) {
			return authsdk.NewAPIError(http.StatusConflict, se.Code, se.Message)
		}
		return authsdk.NewAPIError(http.StatusBadRequest, se.Code, se.Message)
	case service.KindNotFound:
		return authsdk.NewAPIError(http.StatusNotFound, se.Code, se.Message)
	case service.KindUpstream:
		return authsdk.NewAPIError(http.StatusBadGateway, se.Code, se.Message)
	default:
		if se.Code == "" {
			return authsdk.ErrInternal
		}
		return authsdk.NewAPIError(http.StatusInternalServerError, se.Code, se.Message)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apiError(err)
	log := slogx.FromContext(r.Context())
	if apiErr.Status >= http.StatusInternalServerError {
		log.Error("request failed", "code", apiErr.Code, "err", err)
	} else {
		log.Warn("request rejected", "code", apiErr.Code, "err", err)
	}
	apiErr.WriteError(w)
}

// decodeRequest reads and validates a JSON body, writing a 400 on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := httpx.DecodeJSON(w, r, dst)
	if err == nil {
		return true
	}

	slogx.FromContext(r.Context()).Warn("invalid request body", "err", err)

	var ve *httpx.ValidationError
	if errors.As(err, &ve) {
		apiErr := authsdk.NewAPIError(http.StatusBadRequest, authsdk.CodeInvalidRequest, ve.Error())
		apiErr.Fields = ve.Fields()
		apiErr.WriteError(w)
		return false
	}
	authsdk.ErrInvalidRequest.WriteError(w)
	return false
}

func writeOK(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusOK, "OK")
}
