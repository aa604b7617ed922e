// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterVecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, vec.WithLabelValues(labels...).Write(m))
	return m.GetCounter().GetValue()
}

func gaugeVecValue(t *testing.T, vec *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, vec.WithLabelValues(labels...).Write(m))
	return m.GetGauge().GetValue()
}

func TestAvatarCounters_Increment(t *testing.T) {
	tests := []struct {
		name string
		vec  *prometheus.CounterVec
		inc  func(string)
	}{
		{"handles created", avatarHandlesCreated, IncHandleCreated},
		{"load attempts", avatarLoadAttempts, IncLoadAttempt},
		{"load failures", avatarLoadFailures, IncLoadFailure},
		{"ownership transfers", avatarOwnershipTransfers, IncOwnershipTransfer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := counterVecValue(t, tt.vec, "metrics-test")
			tt.inc("metrics-test")
			assert.Equal(t, before+1, counterVecValue(t, tt.vec, "metrics-test"))
		})
	}
}

func TestIncAttachError_NormalizesReason(t *testing.T) {
	before := counterVecValue(t, avatarAttachErrors, "metrics-test", "other")
	IncAttachError("metrics-test", "something-else")
	assert.Equal(t, before+1, counterVecValue(t, avatarAttachErrors, "metrics-test", "other"))

	before = counterVecValue(t, avatarAttachErrors, "metrics-test", "chain_exhausted")
	IncAttachError("metrics-test", "chain_exhausted")
	assert.Equal(t, before+1, counterVecValue(t, avatarAttachErrors, "metrics-test", "chain_exhausted"))
}

func TestSetHandlePhase(t *testing.T) {
	SetHandlePhase("metrics-test", PhaseExhausted)
	assert.Equal(t, float64(PhaseExhausted), gaugeVecValue(t, avatarHandlePhase, "metrics-test"))
	SetHandlePhase("metrics-test", PhaseReady)
	assert.Equal(t, float64(PhaseReady), gaugeVecValue(t, avatarHandlePhase, "metrics-test"))
}
