package metrics

import "time"

// CampaignStatus is the lifecycle state of one benchmark campaign.
// A campaign transitions pending -> running -> {completed, failed} and is
// never mutated after reaching a terminal state.
type CampaignStatus string

const (
	StatusPending   CampaignStatus = "pending"
	StatusRunning   CampaignStatus = "running"
	StatusCompleted CampaignStatus = "completed"
	StatusFailed    CampaignStatus = "failed"
)

// Terminal reports whether the status is final.
func (s CampaignStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Result is the aggregate of all samples collected by one campaign.
// The latency average covers successful samples only; failed samples count
// toward totals but not toward latency. Rates are percentages rounded to
// two decimals. For an empty sample set every field is zero.
type Result struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	FailedRequests     int64   `json:"failed_requests"`
	AvgLatencyMs       float64 `json:"avg_latency_ms"`
	SuccessRate        float64 `json:"success_rate"`
	ErrorRate          float64 `json:"error_rate"`

	// Histogram-derived latencies over successful samples, in milliseconds.
	P50LatencyMs float64 `json:"p50_latency_ms"`
	P95LatencyMs float64 `json:"p95_latency_ms"`
	P99LatencyMs float64 `json:"p99_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`
}

// HealthSample is one monitor tick for one target. Uptime and OutageCount
// are per-tick values, not rolling aggregates: trend computation belongs to
// whoever consumes the history.
type HealthSample struct {
	Online        bool      `json:"online"`
	ElapsedMs     float64   `json:"elapsed_ms"`
	Uptime        int       `json:"uptime"`
	SLACompliance int       `json:"sla_compliance"`
	OutageCount   int       `json:"outage_count"`
	CheckedAt     time.Time `json:"checked_at"`
}

// PerfSample is the companion performance record derived from a monitor tick.
type PerfSample struct {
	Score     int       `json:"score"`
	ElapsedMs float64   `json:"elapsed_ms"`
	CheckedAt time.Time `json:"checked_at"`
}
