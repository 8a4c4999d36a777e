package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegistersEngineSeries(t *testing.T) {
	r := GetRegistry()

	for _, name := range []string{
		"paike_http_requests_total",
		"paike_timetable_generation_total",
		"paike_conflicts_detected_total",
		"paike_edits_applied_total",
	} {
		assert.NotNil(t, r.GetCounter(name), name)
	}
	for _, name := range []string{
		"paike_unplaced_requests",
		"paike_optimization_score",
		"paike_workload_gini",
		"paike_room_utilization",
	} {
		assert.NotNil(t, r.GetGauge(name), name)
	}
	assert.NotNil(t, r.GetHistogram("paike_http_request_duration_seconds"))
	assert.NotNil(t, r.GetHistogram("paike_timetable_generation_duration_seconds"))
}

func TestCounterAccumulatesByLabel(t *testing.T) {
	c := GetRegistry().NewCounter("test_counter_total", "测试计数器", []string{"status"})

	c.Inc("ok")
	c.Inc("ok")
	c.Add(3, "failed")

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Equal(t, 2.0, c.values["ok"])
	assert.Equal(t, 3.0, c.values["failed"])
}

func TestGaugeSetOverwrites(t *testing.T) {
	g := GetRegistry().NewGauge("test_gauge", "测试仪表盘", []string{})

	g.Set(0.42)
	g.Set(0.17)

	g.mu.RLock()
	defer g.mu.RUnlock()
	assert.Equal(t, 0.17, g.values[""])
}

func TestHistogramBucketCounts(t *testing.T) {
	h := GetRegistry().NewHistogram("test_histogram", "测试直方图", []string{}, []float64{0.1, 1.0})

	h.Observe(0.05) // 两个bucket都命中
	h.Observe(0.5)  // 只命中1.0
	h.Observe(5.0)  // 只命中+Inf

	h.mu.RLock()
	defer h.mu.RUnlock()
	require.Len(t, h.counts[""], 3)
	assert.Equal(t, 1, h.counts[""][0])
	assert.Equal(t, 2, h.counts[""][1])
	assert.Equal(t, 3, h.counts[""][2])
	assert.InDelta(t, 5.55, h.sums[""], 0.001)
}

func TestRecordHelpersFeedSeries(t *testing.T) {
	RecordGeneration(true, 2, 0.85, 120*time.Millisecond)
	RecordConflict("room_double_booking", "high")
	RecordEdit(false)
	SetWorkloadGini(0.12)
	SetRoomUtilization(0.4)

	r := GetRegistry()

	g := r.GetGauge("paike_unplaced_requests")
	g.mu.RLock()
	assert.Equal(t, 2.0, g.values[""])
	g.mu.RUnlock()

	c := r.GetCounter("paike_edits_applied_total")
	c.mu.RLock()
	assert.GreaterOrEqual(t, c.values["rejected"], 1.0)
	c.mu.RUnlock()
}

func TestHandlerExposesPrometheusText(t *testing.T) {
	RecordRequestMetrics(http.MethodPost, "/api/v1/timetable/generate", http.StatusOK, 30*time.Millisecond)
	SetWorkloadGini(0.2)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, body, "# TYPE paike_http_requests_total counter")
	assert.Contains(t, body, `method="POST"`)
	assert.Contains(t, body, "# TYPE paike_workload_gini gauge")
	assert.Contains(t, body, "paike_http_request_duration_seconds_bucket")
}
