package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementWrite("company", "ok")
	m.IncrementWrite("company", "ok")
	m.IncrementVersionConflict("user")
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)
	m.AddNotifications("published", 3)
	m.ObserveEffective(time.Now(), "merged")
	m.SetFanoutQueueDepth(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConfigWrites.WithLabelValues("company", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VersionConflicts.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Notifications.WithLabelValues("published")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EffectiveSources.WithLabelValues("merged")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.FanoutQueueDepth))
}

func TestNewOnSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
