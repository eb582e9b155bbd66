package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RequestStarted()
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.InFlight))
	m.ObserveRequest("POST", "/v1/airlines", 201, 5*time.Millisecond)
	m.RequestFinished()

	assert.Equal(t, float64(0), promtestutil.ToFloat64(m.InFlight))
	assert.Equal(t, 1, promtestutil.CollectAndCount(m.RequestDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RequestStarted()
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.RequestFinished()
	})
}
