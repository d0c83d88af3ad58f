package bench

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"apipulse/internal/metrics"
	"apipulse/internal/probe"
	"apipulse/internal/stats"
)

const (
	latencyProbeTimeout    = 10 * time.Second
	loadTestTimeout        = 10 * time.Second
	stressTestTimeout      = 15 * time.Second
	reliabilityTestTimeout = 30 * time.Second

	// Latency probe bounds: never stop with fewer than minProbeSamples,
	// never issue more than maxProbeRequests no matter the duration.
	minProbeSamples  = 5
	maxProbeRequests = 100

	minAdaptiveDelay = 50 * time.Millisecond
	maxAdaptiveDelay = 200 * time.Millisecond
	failRetryPause   = 100 * time.Millisecond

	loadTestWorkers = 10
	loadTestPause   = 50 * time.Millisecond

	stressPhases          = 3
	stressWorkersPerPhase = 5
	stressWorkerCeiling   = 50
	stressPause           = 100 * time.Millisecond

	reliabilityInterval = 5 * time.Second
)

// Service executes benchmark campaigns. All campaigns share one Prober and
// write through one Sink; apart from that, concurrent campaigns are fully
// independent.
type Service struct {
	prober *probe.Prober
	sink   metrics.Sink
	log    *logrus.Logger
}

func NewService(prober *probe.Prober, sink metrics.Sink, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		prober: prober,
		sink:   sink,
		log:    log,
	}
}

// RunCampaign starts a campaign in the background. The caller is expected
// to have persisted the campaign in pending state already and to poll the
// sink's storage for completion. The spawned goroutine always reaches a
// terminal status write, even on panic.
func (s *Service) RunCampaign(campaignID, targetURL string, kind ProfileKind, durationSeconds int) {
	c := Campaign{
		ID:        campaignID,
		TargetURL: targetURL,
		Profile:   kind,
		Duration:  time.Duration(durationSeconds) * time.Second,
	}

	go func() {
		if _, _, err := s.Run(context.Background(), c); err != nil {
			s.log.WithFields(logrus.Fields{
				"campaign": c.ID,
				"profile":  c.Profile.String(),
			}).WithError(err).Error("campaign failed")
		}
	}()
}

// Run executes a campaign to completion and returns its aggregate and
// score. Individual probe failures are counted, not raised; the returned
// error covers orchestration failures only, which leave the campaign in
// failed status with no result.
func (s *Service) Run(ctx context.Context, c Campaign) (metrics.Result, int, error) {
	c.StartedAt = time.Now()
	if err := s.sink.MarkCampaignStatus(c.ID, metrics.StatusRunning, c.StartedAt, time.Time{}); err != nil {
		return metrics.Result{}, 0, fmt.Errorf("failed to mark campaign running: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"campaign": c.ID,
		"target":   c.TargetURL,
		"profile":  c.Profile.String(),
		"duration": c.Duration,
	}).Info("campaign started")

	collector := stats.NewCollector()

	if err := s.execute(ctx, c, collector); err != nil {
		s.markFailed(&c)
		return metrics.Result{}, 0, err
	}

	res := collector.Snapshot()
	score := metrics.PerformanceScore(res)
	c.CompletedAt = time.Now()

	if err := s.sink.RecordCampaignResult(c.ID, res, score); err != nil {
		s.markFailed(&c)
		return metrics.Result{}, 0, fmt.Errorf("failed to record campaign result: %w", err)
	}
	if err := s.sink.MarkCampaignStatus(c.ID, metrics.StatusCompleted, c.StartedAt, c.CompletedAt); err != nil {
		return res, score, fmt.Errorf("failed to mark campaign completed: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"campaign": c.ID,
		"requests": res.TotalRequests,
		"score":    score,
	}).Info("campaign completed")

	return res, score, nil
}

// execute dispatches to the profile's executor. Individual probe failures
// stay inside the collector; an error here means the campaign itself broke.
// A panic in a profile is converted into a campaign-level error so the
// caller still reaches a terminal status write.
func (s *Service) execute(ctx context.Context, c Campaign, col *stats.Collector) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("campaign %s panicked: %v", c.ID, r)
		}
	}()

	switch c.Profile {
	case ProfileResponseTime:
		s.runResponseTime(ctx, c, col)
	case ProfileLoadTest:
		s.runLoadTest(ctx, c, col)
	case ProfileStressTest:
		s.runStressTest(ctx, c, col)
	case ProfileReliabilityTest:
		s.runReliabilityTest(ctx, c, col)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownProfile, int(c.Profile))
	}
	return nil
}

func (s *Service) markFailed(c *Campaign) {
	c.CompletedAt = time.Now()
	if err := s.sink.MarkCampaignStatus(c.ID, metrics.StatusFailed, c.StartedAt, c.CompletedAt); err != nil {
		s.log.WithField("campaign", c.ID).WithError(err).Error("failed to mark campaign failed")
	}
}

// runResponseTime issues sequential GETs with an adaptive inter-request
// delay. It stops once the duration elapsed and at least minProbeSamples
// were issued, hard-capped at maxProbeRequests. A target that has never
// answered successfully is abandoned at the sample floor instead of being
// hammered for the full duration.
func (s *Service) runResponseTime(ctx context.Context, c Campaign, col *stats.Collector) {
	start := time.Now()

	for col.Requests() < maxProbeRequests {
		if time.Since(start) >= c.Duration && col.Requests() >= minProbeSamples {
			break
		}

		sample := s.prober.Do(ctx, http.MethodGet, c.TargetURL, latencyProbeTimeout)
		col.Add(sample)

		if !sample.Success {
			if col.Successes() == 0 && col.Requests() >= minProbeSamples {
				break
			}
			time.Sleep(failRetryPause)
			continue
		}

		time.Sleep(adaptiveDelay(sample.Elapsed))
	}
}

// adaptiveDelay throttles against fast targets without materially slowing
// slow ones: a tenth of the previous latency, clamped to [50ms, 200ms].
func adaptiveDelay(prev time.Duration) time.Duration {
	d := prev / 10
	if d < minAdaptiveDelay {
		return minAdaptiveDelay
	}
	if d > maxAdaptiveDelay {
		return maxAdaptiveDelay
	}
	return d
}

// runLoadTest runs a fixed fan-out of workers, each looping GET + pause
// until the wall-clock deadline. The campaign waits for every worker to
// observe the deadline; it never joins early.
func (s *Service) runLoadTest(ctx context.Context, c Campaign, col *stats.Collector) {
	deadline := time.Now().Add(c.Duration)

	var wg sync.WaitGroup
	for i := 0; i < loadTestWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				col.Add(s.prober.Do(ctx, http.MethodGet, c.TargetURL, loadTestTimeout))
				time.Sleep(loadTestPause)
			}
		}()
	}
	wg.Wait()
}

// stressPhaseWorkers returns the concurrency of stress phase k (1-based),
// clamped at the safety ceiling. The ceiling is not reached with the
// current multiplier but guards against tuning it up.
func stressPhaseWorkers(phase int) int {
	workers := stressWorkersPerPhase * phase
	if workers > stressWorkerCeiling {
		return stressWorkerCeiling
	}
	return workers
}

// runStressTest runs three strictly sequential phases of rising
// concurrency, each lasting a third of the campaign duration. All samples
// across the phases pool into one collector. A weighted semaphore enforces
// the worker ceiling even if phase constants are ever raised.
func (s *Service) runStressTest(ctx context.Context, c Campaign, col *stats.Collector) {
	sem := semaphore.NewWeighted(stressWorkerCeiling)
	phaseDur := c.Duration / stressPhases

	for phase := 1; phase <= stressPhases; phase++ {
		deadline := time.Now().Add(phaseDur)

		var wg sync.WaitGroup
		for i := 0; i < stressPhaseWorkers(phase); i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				defer sem.Release(1)

				for time.Now().Before(deadline) {
					col.Add(s.prober.Do(ctx, http.MethodGet, c.TargetURL, stressTestTimeout))
					time.Sleep(stressPause)
				}
			}()
		}
		wg.Wait()
	}
}

// runReliabilityTest issues one GET per fixed interval until the duration
// elapses, trading throughput for long-horizon consistency.
func (s *Service) runReliabilityTest(ctx context.Context, c Campaign, col *stats.Collector) {
	start := time.Now()

	for {
		col.Add(s.prober.Do(ctx, http.MethodGet, c.TargetURL, reliabilityTestTimeout))

		if time.Since(start)+reliabilityInterval > c.Duration {
			return
		}
		time.Sleep(reliabilityInterval)
	}
}
