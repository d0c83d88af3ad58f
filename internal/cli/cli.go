package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"apipulse/internal/bench"
	"apipulse/internal/metrics"
)

// Start runs one campaign headless, printing a time-based progress line
// while the profile executes and a summary when it completes.
func Start(svc *bench.Service, c bench.Campaign) error {
	printHeader(c)

	type outcome struct {
		res   metrics.Result
		score int
		err   error
	}

	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		res, score, err := svc.Run(context.Background(), c)
		done <- outcome{res: res, score: score, err: err}
	}()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case out := <-done:
			if out.err != nil {
				fmt.Printf("\n\ncampaign failed: %v\n", out.err)
				return out.err
			}
			printSummary(out.res, out.score, time.Since(start))
			return nil
		case <-ticker.C:
			elapsed := time.Since(start)
			pct := elapsed.Seconds() / c.Duration.Seconds()
			if pct > 1.0 {
				pct = 1.0
			}
			fmt.Printf("\r%s %3.0f%% | %s/%s",
				progressBar(pct, 20), pct*100,
				elapsed.Round(time.Second), c.Duration)
		}
	}
}

func printHeader(c bench.Campaign) {
	fmt.Printf("\nAPIPULSE BENCHMARK\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Campaign   : %s\n", c.ID)
	fmt.Printf("Target URL : %s\n", c.TargetURL)
	fmt.Printf("Profile    : %s\n", c.Profile)
	fmt.Printf("Duration   : %s\n", c.Duration)
	fmt.Printf("======================================================================\n\n")
}

func progressBar(pct float64, width int) string {
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("-", width-filled) + "]"
}

func printSummary(res metrics.Result, score int, totalTime time.Duration) {
	fmt.Printf("\n\nBENCHMARK RESULTS\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Total Duration : %s\n", totalTime.Round(time.Second))
	fmt.Printf("Requests Sent  : %d\n", res.TotalRequests)
	fmt.Printf("Success        : %d (%.2f%%)\n", res.SuccessfulRequests, res.SuccessRate)
	fmt.Printf("Failures       : %d (%.2f%%)\n", res.FailedRequests, res.ErrorRate)
	fmt.Printf("Score          : %d/100\n", score)
	fmt.Printf("\nRESPONSE TIMES (ms) [Success Only]\n")
	fmt.Printf("   Avg : %.2f\n", res.AvgLatencyMs)
	fmt.Printf("   P50 : %.2f\n", res.P50LatencyMs)
	fmt.Printf("   P95 : %.2f\n", res.P95LatencyMs)
	fmt.Printf("   P99 : %.2f\n", res.P99LatencyMs)
	fmt.Printf("   Max : %.2f\n", res.MaxLatencyMs)
	fmt.Printf("======================================================================\n")
}
