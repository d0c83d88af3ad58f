package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"apipulse/internal/metrics"
	"apipulse/internal/probe"
)

const (
	// DefaultInterval is the cadence between health checks per target.
	DefaultInterval = 5 * time.Minute
	// DefaultTimeout bounds a single health-check probe.
	DefaultTimeout = 30 * time.Second
)

// Config tunes the monitor's cadence. Zero values fall back to defaults.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Monitor runs recurring health checks, at most one active schedule per
// target. Campaigns against the same target run independently; the monitor
// only shares the prober and the sink with them.
type Monitor struct {
	sched    gocron.Scheduler
	prober   *probe.Prober
	sink     metrics.Sink
	log      *logrus.Logger
	interval time.Duration
	timeout  time.Duration

	mu   sync.Mutex
	jobs map[string]uuid.UUID
}

// New builds a Monitor with its own started scheduler.
func New(prober *probe.Prober, sink metrics.Sink, log *logrus.Logger, cfg Config) (*Monitor, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	m := &Monitor{
		sched:    sched,
		prober:   prober,
		sink:     sink,
		log:      log,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		jobs:     make(map[string]uuid.UUID),
	}

	sched.Start()
	return m, nil
}

// Start arms the recurring check for a target, replacing any existing
// schedule (restart is idempotent). The first check runs synchronously
// before returning, so a freshly registered target has data without
// waiting a full interval.
func (m *Monitor) Start(targetID, targetURL string) error {
	m.mu.Lock()
	if jobID, ok := m.jobs[targetID]; ok {
		if err := m.sched.RemoveJob(jobID); err != nil {
			m.log.WithField("target", targetID).WithError(err).Warn("failed to remove stale schedule")
		}
		delete(m.jobs, targetID)
	}

	job, err := m.sched.NewJob(
		gocron.DurationJob(m.interval),
		gocron.NewTask(func() {
			m.check(targetID, targetURL)
		}),
	)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("failed to schedule checks for %s: %w", targetID, err)
	}
	m.jobs[targetID] = job.ID()
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"target":   targetID,
		"url":      targetURL,
		"interval": m.interval,
	}).Info("monitoring started")

	m.check(targetID, targetURL)
	return nil
}

// Stop cancels the schedule for a target; a no-op if none exists. A tick
// already in flight is not interrupted.
func (m *Monitor) Stop(targetID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	jobID, ok := m.jobs[targetID]
	if !ok {
		return
	}
	if err := m.sched.RemoveJob(jobID); err != nil {
		m.log.WithField("target", targetID).WithError(err).Warn("failed to remove schedule")
	}
	delete(m.jobs, targetID)

	m.log.WithField("target", targetID).Info("monitoring stopped")
}

// ActiveCount returns the number of targets with an armed schedule.
func (m *Monitor) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Shutdown cancels all schedules and stops the scheduler.
func (m *Monitor) Shutdown() error {
	m.mu.Lock()
	m.jobs = make(map[string]uuid.UUID)
	m.mu.Unlock()
	return m.sched.Shutdown()
}

// check performs one tick. Every tick emits exactly one record pair: even
// if the probe itself panics, a full-failure sample is written rather than
// leaving a gap in the history.
func (m *Monitor) check(targetID, targetURL string) {
	at := time.Now()
	sample := m.safeProbe(targetID, targetURL)

	uptime := 0
	outage := 1
	if sample.Success {
		uptime = 100
		outage = 0
	}

	health := metrics.HealthSample{
		Online:        sample.Success,
		ElapsedMs:     sample.ElapsedMs(),
		Uptime:        uptime,
		SLACompliance: metrics.SLAScore(sample.Success, sample.Elapsed),
		OutageCount:   outage,
		CheckedAt:     at,
	}
	if err := m.sink.RecordReliabilitySample(targetID, health); err != nil {
		m.log.WithField("target", targetID).WithError(err).Error("failed to record reliability sample")
	}

	perf := metrics.PerfSample{
		Score:     metrics.TickPerfScore(sample.Success, sample.Elapsed),
		ElapsedMs: sample.ElapsedMs(),
		CheckedAt: at,
	}
	if err := m.sink.RecordPerformanceSample(targetID, perf); err != nil {
		m.log.WithField("target", targetID).WithError(err).Error("failed to record performance sample")
	}

	m.log.WithFields(logrus.Fields{
		"target": targetID,
		"online": sample.Success,
		"ms":     sample.ElapsedMs(),
		"sla":    health.SLACompliance,
	}).Debug("health check")
}

// safeProbe shields the tick from a panicking probe by degrading to a
// total-failure sample.
func (m *Monitor) safeProbe(targetID, targetURL string) (sample probe.Sample) {
	defer func() {
		if r := recover(); r != nil {
			m.log.WithFields(logrus.Fields{
				"target": targetID,
				"panic":  r,
			}).Error("health check panicked")
			sample = probe.Sample{}
		}
	}()
	return m.prober.Do(context.Background(), http.MethodHead, targetURL, m.timeout)
}
