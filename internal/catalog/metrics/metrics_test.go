package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("countries", "create", "ok", time.Now())
	m.ObserveOperation("countries", "create", "ok", time.Now())
	m.ObserveOperation("countries", "create", "conflict", time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("countries", "create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("countries", "create", "conflict")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("countries", "get", "ok", time.Now())
		m.ObservePageSize("countries", 20)
		m.IncrementCache("countries", "hit")
	})
}
