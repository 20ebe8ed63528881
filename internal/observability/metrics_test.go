// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordLogin(ResultSuccess)
		m.RecordRegistration(ResultError)
		m.RecordTokenRejection("malformed")
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
	})
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordLogin(ResultRejected)
	m.RecordLogin(ResultRejected)
	m.RecordLogin(ResultSuccess)
	m.RecordTokenRejection("bad_signature")

	assert.InDelta(t, 2, testutil.ToFloat64(m.LoginsTotal.WithLabelValues(ResultRejected)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LoginsTotal.WithLabelValues(ResultSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TokenRejectionsTotal.WithLabelValues("bad_signature")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.TokenRejectionsTotal.WithLabelValues("expired")), 0)
}

func TestMetrics_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
