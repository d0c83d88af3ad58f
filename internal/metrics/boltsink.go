package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketCampaignResults = "campaign_results"
	bucketCampaignStatus  = "campaign_status"
	bucketReliability     = "reliability"
	bucketPerformance     = "performance"
)

// BoltSink is a Sink backed by a local bbolt file. It doubles as the read
// side for the dashboard: the engine only calls the Sink methods, the
// history accessors exist for consumers polling for results.
type BoltSink struct {
	db *bbolt.DB
}

var _ Sink = (*BoltSink)(nil)

type campaignResultRecord struct {
	Result     Result    `json:"result"`
	Score      int       `json:"score"`
	RecordedAt time.Time `json:"recorded_at"`
}

type campaignStatusRecord struct {
	Status      CampaignStatus `json:"status"`
	StartedAt   time.Time      `json:"started_at,omitzero"`
	CompletedAt time.Time      `json:"completed_at,omitzero"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// OpenBoltSink opens (creating if needed) the metrics database at path and
// initializes its buckets.
func OpenBoltSink(path string) (*BoltSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{
			bucketCampaignResults,
			bucketCampaignStatus,
			bucketReliability,
			bucketPerformance,
		} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltSink{db: db}, nil
}

func (s *BoltSink) Close() error {
	return s.db.Close()
}

func (s *BoltSink) RecordCampaignResult(campaignID string, res Result, score int) error {
	rec := campaignResultRecord{
		Result:     res,
		Score:      score,
		RecordedAt: time.Now(),
	}
	return s.put(bucketCampaignResults, []byte(campaignID), rec)
}

func (s *BoltSink) MarkCampaignStatus(campaignID string, status CampaignStatus, startedAt, completedAt time.Time) error {
	rec := campaignStatusRecord{
		Status:      status,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		UpdatedAt:   time.Now(),
	}
	return s.put(bucketCampaignStatus, []byte(campaignID), rec)
}

func (s *BoltSink) RecordReliabilitySample(targetID string, sample HealthSample) error {
	return s.put(bucketReliability, sampleKey(targetID, sample.CheckedAt), sample)
}

func (s *BoltSink) RecordPerformanceSample(targetID string, sample PerfSample) error {
	return s.put(bucketPerformance, sampleKey(targetID, sample.CheckedAt), sample)
}

// sampleKey orders samples per target chronologically within the bucket.
func sampleKey(targetID string, at time.Time) []byte {
	return []byte(fmt.Sprintf("%s/%020d", targetID, at.UnixNano()))
}

func (s *BoltSink) put(bucket string, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put(key, data)
	})
}

// CampaignResult returns the stored aggregate and score for a campaign.
func (s *BoltSink) CampaignResult(campaignID string) (Result, int, error) {
	var rec campaignResultRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketCampaignResults)).Get([]byte(campaignID))
		if v == nil {
			return fmt.Errorf("no result for campaign %s", campaignID)
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return Result{}, 0, err
	}
	return rec.Result, rec.Score, nil
}

// CampaignStatus returns the last recorded lifecycle state of a campaign.
func (s *BoltSink) CampaignStatus(campaignID string) (CampaignStatus, error) {
	var rec campaignStatusRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketCampaignStatus)).Get([]byte(campaignID))
		if v == nil {
			return fmt.Errorf("no status for campaign %s", campaignID)
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return "", err
	}
	return rec.Status, nil
}

// ReliabilityHistory returns all stored ticks for a target, oldest first.
func (s *BoltSink) ReliabilityHistory(targetID string) ([]HealthSample, error) {
	var out []HealthSample
	err := s.scanSamples(bucketReliability, targetID, func(v []byte) error {
		var sample HealthSample
		if err := json.Unmarshal(v, &sample); err != nil {
			return err
		}
		out = append(out, sample)
		return nil
	})
	return out, err
}

// PerformanceHistory returns all stored performance records for a target,
// oldest first.
func (s *BoltSink) PerformanceHistory(targetID string) ([]PerfSample, error) {
	var out []PerfSample
	err := s.scanSamples(bucketPerformance, targetID, func(v []byte) error {
		var sample PerfSample
		if err := json.Unmarshal(v, &sample); err != nil {
			return err
		}
		out = append(out, sample)
		return nil
	})
	return out, err
}

func (s *BoltSink) scanSamples(bucket, targetID string, fn func(v []byte) error) error {
	prefix := []byte(targetID + "/")
	return s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucket)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := fn(v); err != nil {
				return err
			}
		}
		return nil
	})
}
