package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func healthyResult(avgMs, errorRate float64) Result {
	return Result{
		TotalRequests:      1000,
		SuccessfulRequests: 1000 - int64(errorRate*10),
		FailedRequests:     int64(errorRate * 10),
		AvgLatencyMs:       avgMs,
		SuccessRate:        100 - errorRate,
		ErrorRate:          errorRate,
	}
}

func TestPerformanceScoreLatencyTiers(t *testing.T) {
	cases := []struct {
		avgMs float64
		want  int
	}{
		{50, 100},
		{200, 100},
		{201, 90},
		{500, 90},
		{501, 80},
		{1000, 80},
		{1001, 70},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PerformanceScore(healthyResult(tc.avgMs, 0)), "avg=%v", tc.avgMs)
	}
}

func TestPerformanceScoreMonotonicInLatency(t *testing.T) {
	prev := 101
	for _, avg := range []float64{10, 150, 250, 600, 1200, 5000} {
		got := PerformanceScore(healthyResult(avg, 0))
		assert.LessOrEqual(t, got, prev)
		prev = got
	}
}

func TestPerformanceScoreErrorTiers(t *testing.T) {
	cases := []struct {
		errorRate float64
		want      int
	}{
		{0, 100},
		{0.1, 100},
		{0.5, 90},
		{1, 90},
		{3, 80},
		{5, 80},
		{10, 60},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PerformanceScore(healthyResult(50, tc.errorRate)), "errorRate=%v", tc.errorRate)
	}
}

func TestPerformanceScoreCombinedDeductions(t *testing.T) {
	// Worst tiers on both axes: 100 - 30 - 40 = 30.
	assert.Equal(t, 30, PerformanceScore(healthyResult(2000, 50)))
}

func TestPerformanceScoreZeroCases(t *testing.T) {
	assert.Zero(t, PerformanceScore(Result{}))

	allFailed := Result{
		TotalRequests:  10,
		FailedRequests: 10,
		ErrorRate:      100,
	}
	assert.Zero(t, PerformanceScore(allFailed))
}

func TestSLAScore(t *testing.T) {
	assert.Zero(t, SLAScore(false, 0))
	assert.Equal(t, 100, SLAScore(true, 500*time.Millisecond))
	assert.Equal(t, 100, SLAScore(true, time.Second))
	assert.Equal(t, 90, SLAScore(true, 1500*time.Millisecond))
	assert.Equal(t, 75, SLAScore(true, 3*time.Second))
	assert.Equal(t, 50, SLAScore(true, 6*time.Second))
}

func TestTickPerfScore(t *testing.T) {
	assert.Zero(t, TickPerfScore(false, 0))
	assert.Equal(t, 100, TickPerfScore(true, 400*time.Millisecond))
	assert.Equal(t, 90, TickPerfScore(true, 800*time.Millisecond))
	assert.Equal(t, 80, TickPerfScore(true, 2*time.Second))
	assert.Equal(t, 60, TickPerfScore(true, 4*time.Second))
}
