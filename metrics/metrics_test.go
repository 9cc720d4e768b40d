// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func TestNoopMetrics(t *testing.T) {
	m := defaultNoopMetrics()
	assert.Nil(t, m.GetOrCreateHandler())

	m.GetOrCreateCountMeter("c").Add(1)
	m.GetOrCreateCountVecMeter("cv", []string{"l"}).AddWithLabel(1, map[string]string{"l": "x"})
	m.GetOrCreateGaugeMeter("g").Set(1)
	m.GetOrCreateGaugeVecMeter("gv", []string{"l"}).SetWithLabel(1, map[string]string{"l": "x"})
	m.GetOrCreateHistogramMeter("h", nil).Observe(1)
}

func find(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestPromMetrics(t *testing.T) {
	lazyCounter := LazyLoadCounter("lazy_count")

	InitializePrometheusMetrics()
	InitializePrometheusMetrics()

	lazyCounter().Add(2)
	Counter("count1").Add(1)
	Counter("count1").Add(1)
	CounterVec("events_total", []string{"type"}).AddWithLabel(3, map[string]string{"type": "stake_created"})
	Gauge("gauge1").Set(42)
	GaugeVec("gaugevec1", []string{"kind"}).SetWithLabel(7, map[string]string{"kind": "a"})
	Histogram("sweep_ms", BucketSweepMillis).Observe(12)

	families, err := Gatherer().Gather()
	require.NoError(t, err)

	assert.Equal(t, float64(2), find(families, "govcore_lazy_count").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, float64(2), find(families, "govcore_count1").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, float64(3), find(families, "govcore_events_total").GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, float64(42), find(families, "govcore_gauge1").GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, float64(7), find(families, "govcore_gaugevec1").GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, uint64(1), find(families, "govcore_sweep_ms").GetMetric()[0].GetHistogram().GetSampleCount())

	rec := httptest.NewRecorder()
	HTTPHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "govcore_count1 2"))
}
