package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"apipulse/internal/probe"
)

func TestSnapshotEmpty(t *testing.T) {
	res := NewCollector().Snapshot()

	assert.Zero(t, res.TotalRequests)
	assert.Zero(t, res.AvgLatencyMs)
	assert.Zero(t, res.SuccessRate)
	assert.Zero(t, res.ErrorRate)
}

func TestSnapshotCountsAndRates(t *testing.T) {
	c := NewCollector()
	c.Add(probe.Sample{Success: true, Elapsed: 100 * time.Millisecond})
	c.Add(probe.Sample{Success: false})
	c.Add(probe.Sample{Success: false})

	res := c.Snapshot()

	assert.EqualValues(t, 3, res.TotalRequests)
	assert.EqualValues(t, 1, res.SuccessfulRequests)
	assert.EqualValues(t, 2, res.FailedRequests)
	assert.Equal(t, res.TotalRequests, res.SuccessfulRequests+res.FailedRequests)
	assert.InDelta(t, 33.33, res.SuccessRate, 0.001)
	assert.InDelta(t, 66.67, res.ErrorRate, 0.001)
	assert.InDelta(t, 100, res.SuccessRate+res.ErrorRate, 0.01)
}

func TestFailedSamplesExcludedFromLatency(t *testing.T) {
	c := NewCollector()
	c.Add(probe.Sample{Success: true, Elapsed: 100 * time.Millisecond})
	c.Add(probe.Sample{Success: true, Elapsed: 200 * time.Millisecond})
	// A failed sample with a huge elapsed must not drag the average.
	c.Add(probe.Sample{Success: false, Elapsed: 10 * time.Second})

	res := c.Snapshot()

	assert.InDelta(t, 150, res.AvgLatencyMs, 0.01)
}

func TestAllFailedYieldsZeroLatency(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 5; i++ {
		c.Add(probe.Sample{Success: false, Elapsed: time.Second})
	}

	res := c.Snapshot()

	assert.Zero(t, res.AvgLatencyMs)
	assert.Zero(t, res.SuccessRate)
	assert.InDelta(t, 100, res.ErrorRate, 0.001)
}

func TestConcurrentAddsLoseNothing(t *testing.T) {
	c := NewCollector()

	const workers = 10
	const perWorker = 200

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				c.Add(probe.Sample{
					Success: j%2 == 0,
					Elapsed: time.Duration(j+1) * time.Millisecond,
				})
			}
		}(i)
	}
	wg.Wait()

	res := c.Snapshot()

	assert.EqualValues(t, workers*perWorker, res.TotalRequests)
	assert.Equal(t, res.TotalRequests, res.SuccessfulRequests+res.FailedRequests)
	assert.EqualValues(t, workers*perWorker/2, res.SuccessfulRequests)
}
