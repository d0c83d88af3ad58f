package monitor

import (
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apipulse/internal/metrics"
	"apipulse/internal/probe"
)

type memSink struct {
	mu     sync.Mutex
	health map[string][]metrics.HealthSample
	perf   map[string][]metrics.PerfSample
}

func newMemSink() *memSink {
	return &memSink{
		health: make(map[string][]metrics.HealthSample),
		perf:   make(map[string][]metrics.PerfSample),
	}
}

func (s *memSink) RecordCampaignResult(string, metrics.Result, int) error { return nil }

func (s *memSink) MarkCampaignStatus(string, metrics.CampaignStatus, time.Time, time.Time) error {
	return nil
}

func (s *memSink) RecordReliabilitySample(targetID string, sample metrics.HealthSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health[targetID] = append(s.health[targetID], sample)
	return nil
}

func (s *memSink) RecordPerformanceSample(targetID string, sample metrics.PerfSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.perf[targetID] = append(s.perf[targetID], sample)
	return nil
}

func (s *memSink) healthHistory(targetID string) []metrics.HealthSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]metrics.HealthSample, len(s.health[targetID]))
	copy(out, s.health[targetID])
	return out
}

func (s *memSink) perfHistory(targetID string) []metrics.PerfSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]metrics.PerfSample, len(s.perf[targetID]))
	copy(out, s.perf[targetID])
	return out
}

func newTestMonitor(t *testing.T, sink metrics.Sink, interval time.Duration) *Monitor {
	t.Helper()
	m, err := New(probe.New(), sink, nil, Config{Interval: interval, Timeout: 2 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { m.Shutdown() })
	return m
}

func TestImmediateCheckOnStart(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := newMemSink()
	m := newTestMonitor(t, sink, time.Hour)

	require.NoError(t, m.Start("t1", srv.URL))

	// Start checks synchronously, so data exists before the first interval.
	health := sink.healthHistory("t1")
	require.Len(t, health, 1)
	assert.True(t, health[0].Online)
	assert.Equal(t, 100, health[0].Uptime)
	assert.Equal(t, 100, health[0].SLACompliance)
	assert.Zero(t, health[0].OutageCount)
	assert.Equal(t, http.MethodHead, gotMethod)

	perf := sink.perfHistory("t1")
	require.Len(t, perf, 1)
	assert.Equal(t, 100, perf[0].Score)
}

func TestUnreachableTargetTick(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	url := "http://" + l.Addr().String()
	l.Close()

	sink := newMemSink()
	m := newTestMonitor(t, sink, time.Hour)

	require.NoError(t, m.Start("down", url))

	health := sink.healthHistory("down")
	require.Len(t, health, 1)
	assert.False(t, health[0].Online)
	assert.Zero(t, health[0].Uptime)
	assert.Zero(t, health[0].SLACompliance)
	assert.Equal(t, 1, health[0].OutageCount)

	perf := sink.perfHistory("down")
	require.Len(t, perf, 1)
	assert.Zero(t, perf[0].Score)
}

func TestStartTwiceKeepsOneSchedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := newMemSink()
	m := newTestMonitor(t, sink, time.Hour)

	require.NoError(t, m.Start("t1", srv.URL))
	require.NoError(t, m.Start("t1", srv.URL))

	assert.Equal(t, 1, m.ActiveCount())
	// One immediate check per Start call, no duplicate timers behind them.
	assert.Len(t, sink.healthHistory("t1"), 2)
}

func TestRecurringTicks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := newMemSink()
	m := newTestMonitor(t, sink, 100*time.Millisecond)

	require.NoError(t, m.Start("t1", srv.URL))
	time.Sleep(450 * time.Millisecond)
	m.Stop("t1")

	ticks := len(sink.healthHistory("t1"))
	assert.GreaterOrEqual(t, ticks, 3, "immediate check plus recurring ticks")
	assert.Len(t, sink.perfHistory("t1"), ticks, "every tick emits a record pair")
}

func TestStopIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := newMemSink()
	m := newTestMonitor(t, sink, time.Hour)

	m.Stop("never-started")

	require.NoError(t, m.Start("t1", srv.URL))
	assert.Equal(t, 1, m.ActiveCount())

	m.Stop("t1")
	m.Stop("t1")
	assert.Zero(t, m.ActiveCount())
}

func TestIndependentTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := newMemSink()
	m := newTestMonitor(t, sink, time.Hour)

	require.NoError(t, m.Start("a", srv.URL))
	require.NoError(t, m.Start("b", srv.URL))
	assert.Equal(t, 2, m.ActiveCount())

	m.Stop("a")
	assert.Equal(t, 1, m.ActiveCount())
	assert.Len(t, sink.healthHistory("b"), 1)
}
