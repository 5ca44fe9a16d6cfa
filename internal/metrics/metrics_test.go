package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.IncValidation("CORPORATE", "probe")
	m.ObserveValidate(time.Second)
	m.ObserveProbe("mx", time.Millisecond)
	m.IncCacheOp("get", "hit")
	m.SetListSize("disposable", 10)
	m.IncListFetch("ok")
	m.IncJob("done")
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncValidation("CORPORATE", "probe")
	m.IncValidation("CORPORATE", "probe")
	m.IncCacheOp("get", "miss")
	m.SetListSize("public_provider", 19)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Validations.WithLabelValues("CORPORATE", "probe")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOps.WithLabelValues("get", "miss")))
	assert.Equal(t, 19.0, testutil.ToFloat64(m.ListSize.WithLabelValues("public_provider")))
}
