package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// SafeHistogram is a thread-safe wrapper around hdrhistogram
type SafeHistogram struct {
	hist *hdrhistogram.Histogram
	mu   sync.Mutex
}

func NewSafeHistogram() *SafeHistogram {
	// 1us to 10min, 3 significant figures
	h := hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3)
	return &SafeHistogram{hist: h}
}

// Record stores one latency (internally in microseconds).
func (h *SafeHistogram) Record(d time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.RecordValue(d.Microseconds())
}

// QuantileMs returns the latency at quantile q in milliseconds.
func (h *SafeHistogram) QuantileMs(q float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.ValueAtQuantile(q)) / 1000.0
}

func (h *SafeHistogram) MaxMs() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.Max()) / 1000.0
}

func (h *SafeHistogram) TotalCount() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}
