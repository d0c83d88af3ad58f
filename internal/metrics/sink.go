package metrics

import "time"

// Sink is the engine's single egress for measurement data. The engine only
// ever writes through it; reading history back is the dashboard's business.
type Sink interface {
	// RecordCampaignResult stores the aggregate and score of a completed
	// campaign. Called at most once per campaign.
	RecordCampaignResult(campaignID string, res Result, score int) error

	// MarkCampaignStatus records a lifecycle transition. StartedAt and
	// CompletedAt are zero until the corresponding transition happened.
	MarkCampaignStatus(campaignID string, status CampaignStatus, startedAt, completedAt time.Time) error

	// RecordReliabilitySample appends one monitor tick for a target.
	RecordReliabilitySample(targetID string, s HealthSample) error

	// RecordPerformanceSample appends the tick's companion performance record.
	RecordPerformanceSample(targetID string, s PerfSample) error
}
