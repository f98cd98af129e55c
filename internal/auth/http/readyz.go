package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/authsdk"
	"github.com/aussiebroadwan/gatekeeper/pkg/httpx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

const readyzTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Returns 200 once the database answers and signing keys are loaded, 503 otherwise.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, version"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, version"
//	@Router			/readyz [get].
func ReadyzHandler(version string, st store.Store, keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		status, code := "ok", http.StatusOK
		if err := st.Ping(ctx); err != nil {
			slogx.FromContext(ctx).Warn("readiness: database ping failed", "err", err)
			status, code = "degraded", http.StatusServiceUnavailable
		}
		if !keys.IsReady() {
			slogx.FromContext(ctx).Warn("readiness: no signing keys loaded")
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{Status: status, Version: version})
	}
}
