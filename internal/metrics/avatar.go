// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Phase gauge values for avatar_handle_phase.
const (
	PhaseLoading   = 0
	PhaseReady     = 1
	PhaseExhausted = 2
)

var (
	avatarHandlesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatar_handles_created_total",
		Help: "Resource handles constructed per presentation state",
	}, []string{"state"})

	avatarLoadAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatar_load_attempts_total",
		Help: "Candidate loads started per presentation state",
	}, []string{"state"})

	avatarLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatar_load_failures_total",
		Help: "Candidate loads that failed and advanced the fallback cursor",
	}, []string{"state"})

	avatarHandlePhase = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "avatar_handle_phase",
		Help: "Current handle phase per state (0=loading, 1=ready, 2=exhausted)",
	}, []string{"state"})

	avatarOwnershipTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatar_ownership_transfers_total",
		Help: "Media element handoffs between display containers",
	}, []string{"state"})

	avatarAttachErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avatar_attach_errors_total",
		Help: "Attach attempts reported to the consumer as failed",
	}, []string{"state", "reason"})

	avatarProbeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "avatar_probe_duration_seconds",
		Help:    "Time taken by the media stack to probe one candidate",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"result"})
)

// IncHandleCreated records construction of a pooled handle.
func IncHandleCreated(state string) {
	avatarHandlesCreated.WithLabelValues(state).Inc()
}

// IncLoadAttempt records a candidate load start.
func IncLoadAttempt(state string) {
	avatarLoadAttempts.WithLabelValues(state).Inc()
}

// IncLoadFailure records a contained candidate failure.
func IncLoadFailure(state string) {
	avatarLoadFailures.WithLabelValues(state).Inc()
}

// SetHandlePhase publishes the phase of a handle.
func SetHandlePhase(state string, phase int) {
	avatarHandlePhase.WithLabelValues(state).Set(float64(phase))
}

// IncOwnershipTransfer records an element moving to a new container.
func IncOwnershipTransfer(state string) {
	avatarOwnershipTransfers.WithLabelValues(state).Inc()
}

// IncAttachError records a surfaced attach failure. reason is
// "asset_missing" or "chain_exhausted"; anything else is folded into "other".
func IncAttachError(state, reason string) {
	switch reason {
	case "asset_missing", "chain_exhausted":
	default:
		reason = "other"
	}
	avatarAttachErrors.WithLabelValues(state, reason).Inc()
}

// ObserveProbeDuration records how long one media probe took.
func ObserveProbeDuration(success bool, seconds float64) {
	result := "failure"
	if success {
		result = "success"
	}
	avatarProbeDuration.WithLabelValues(result).Observe(seconds)
}
