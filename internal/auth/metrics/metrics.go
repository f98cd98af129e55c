// Package metrics holds the auth service's domain collectors. They register
// on the default Prometheus registry and are served by /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

var (
	SignIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Email/password sign-in attempts by outcome.",
	}, []string{"result"})

	MFAChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mfa_changes_total",
		Help:      "MFA state machine operations by operation and outcome.",
	}, []string{"op", "result"})

	TicketRedemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mfa_ticket_redemptions_total",
		Help:      "MFA ticket redemptions by outcome.",
	}, []string{"result"})

	SessionRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refreshes_total",
		Help:      "Refresh token exchanges by outcome.",
	}, []string{"result"})

	ProviderRotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_token_rotations_total",
		Help:      "Provider token rotations by provider and outcome.",
	}, []string{"provider", "result"})

	ProviderRefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_refresh_duration_seconds",
		Help:      "Latency of upstream refresh-token grants.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	HousekeepingDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "housekeeping_deleted_total",
		Help:      "Rows removed by housekeeping, by table.",
	}, []string{"table"})
)
