package stats

import (
	"math"
	"sync/atomic"

	"apipulse/internal/metrics"
	"apipulse/internal/probe"
)

// Collector accumulates probe samples for one campaign. It is safe for
// concurrent writers: counters are atomic and the histogram serializes
// internally, so no worker update is ever lost.
type Collector struct {
	requests uint64
	success  uint64
	fail     uint64

	// Exact sum of successful latencies in microseconds. The histogram's
	// mean is approximate; the reported average must not be.
	successLatencyUs int64

	latency *SafeHistogram
}

func NewCollector() *Collector {
	return &Collector{latency: NewSafeHistogram()}
}

// Add records one sample. Failed samples count toward totals but do not
// touch the latency figures.
func (c *Collector) Add(s probe.Sample) {
	atomic.AddUint64(&c.requests, 1)
	if !s.Success {
		atomic.AddUint64(&c.fail, 1)
		return
	}
	atomic.AddUint64(&c.success, 1)
	atomic.AddInt64(&c.successLatencyUs, s.Elapsed.Microseconds())
	c.latency.Record(s.Elapsed)
}

func (c *Collector) Requests() uint64 {
	return atomic.LoadUint64(&c.requests)
}

func (c *Collector) Successes() uint64 {
	return atomic.LoadUint64(&c.success)
}

// Snapshot reduces everything collected so far into a Result. The reduction
// is order-independent, so it needs no guarantee about which worker recorded
// first.
func (c *Collector) Snapshot() metrics.Result {
	total := atomic.LoadUint64(&c.requests)
	if total == 0 {
		return metrics.Result{}
	}
	success := atomic.LoadUint64(&c.success)
	fail := atomic.LoadUint64(&c.fail)

	res := metrics.Result{
		TotalRequests:      int64(total),
		SuccessfulRequests: int64(success),
		FailedRequests:     int64(fail),
		SuccessRate:        round2(float64(success) / float64(total) * 100),
		ErrorRate:          round2(float64(fail) / float64(total) * 100),
	}

	if success > 0 {
		sumUs := atomic.LoadInt64(&c.successLatencyUs)
		res.AvgLatencyMs = round2(float64(sumUs) / float64(success) / 1000.0)
		res.P50LatencyMs = c.latency.QuantileMs(50)
		res.P95LatencyMs = c.latency.QuantileMs(95)
		res.P99LatencyMs = c.latency.QuantileMs(99)
		res.MaxLatencyMs = c.latency.MaxMs()
	}

	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
