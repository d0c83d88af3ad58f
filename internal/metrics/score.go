package metrics

import "time"

// PerformanceScore grades a campaign Result on a 0-100 scale by deducting
// for average latency and error rate. A Result with traffic but no
// successful request scores 0 outright, as does an empty Result.
func PerformanceScore(res Result) int {
	if res.TotalRequests == 0 || res.SuccessfulRequests == 0 {
		return 0
	}

	score := 100

	switch {
	case res.AvgLatencyMs > 1000:
		score -= 30
	case res.AvgLatencyMs > 500:
		score -= 20
	case res.AvgLatencyMs > 200:
		score -= 10
	}

	switch {
	case res.ErrorRate > 5:
		score -= 40
	case res.ErrorRate > 1:
		score -= 20
	case res.ErrorRate > 0.1:
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// SLAScore grades one monitor tick. Offline is a hard 0; online targets
// lose points for slow responses.
func SLAScore(online bool, elapsed time.Duration) int {
	if !online {
		return 0
	}

	score := 100
	ms := elapsed.Milliseconds()
	switch {
	case ms > 5000:
		score -= 50
	case ms > 2000:
		score -= 25
	case ms > 1000:
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	return score
}

// TickPerfScore grades the same tick on the performance curve, which kicks
// in at lower latencies than the SLA curve.
func TickPerfScore(online bool, elapsed time.Duration) int {
	if !online {
		return 0
	}

	score := 100
	ms := elapsed.Milliseconds()
	switch {
	case ms > 3000:
		score -= 40
	case ms > 1000:
		score -= 20
	case ms > 500:
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	return score
}
