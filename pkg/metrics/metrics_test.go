package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("rejected")

func TestCartMetrics_Operations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)

	m.ObserveOperation("add_class", nil, errRejected)
	m.ObserveOperation("add_class", fmt.Errorf("wrapped: %w", errRejected), errRejected)
	m.ObserveOperation("add_class", errors.New("db down"), errRejected)
	m.ObserveOperation("", nil)
	m.ObserveTotal(decimal.RequireFromString("24.50"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, mfs, "cart_operations_total", map[string]string{"operation": "add_class", "outcome": OutcomeOK}))
	assert.Equal(t, 1.0, counterValue(t, mfs, "cart_operations_total", map[string]string{"operation": "add_class", "outcome": OutcomeRejected}))
	assert.Equal(t, 1.0, counterValue(t, mfs, "cart_operations_total", map[string]string{"operation": "add_class", "outcome": OutcomeError}))
	assert.Equal(t, 1.0, counterValue(t, mfs, "cart_operations_total", map[string]string{"operation": "unknown", "outcome": OutcomeOK}))

	hist := findMetricFamily(mfs, "cart_total_amount")
	require.NotNil(t, hist)
	assert.Equal(t, uint64(1), hist.GetMetric()[0].GetHistogram().GetSampleCount())
	assert.InDelta(t, 24.5, hist.GetMetric()[0].GetHistogram().GetSampleSum(), 0.0001)
}

func TestJobMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)

	m.Observe("coupon_expiry", 250*time.Millisecond, nil)
	m.Observe("coupon_expiry", time.Millisecond, errors.New("boom"))

	mfs, err := reg.Gather()
	require.NoError(t, err)

	labels := map[string]string{"job": "coupon_expiry"}
	assert.Equal(t, 1.0, counterValue(t, mfs, "scheduler_job_success_total", labels))
	assert.Equal(t, 1.0, counterValue(t, mfs, "scheduler_job_failure_total", labels))

	duration := findMetricFamily(mfs, "scheduler_job_duration_seconds")
	require.NotNil(t, duration)
	assert.Greater(t, duration.GetMetric()[0].GetHistogram().GetSampleSum(), 0.0)
}

func TestMetrics_NilSafe(t *testing.T) {
	var cart *CartMetrics
	var jobs *JobMetrics

	assert.NotPanics(t, func() {
		cart.ObserveOperation("add_class", nil)
		cart.ObserveTotal(decimal.Zero)
		jobs.Observe("coupon_expiry", time.Second, nil)
		NewCartMetrics(nil).ObserveOperation("add_class", nil)
		NewJobMetrics(nil).Observe("coupon_expiry", time.Second, nil)
	})
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	require.NotNil(t, mf, "metric %q not found", name)
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %q missing labels %v", name, labels)
	return 0
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
