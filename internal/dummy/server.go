package dummy

import (
	"fmt"
	"math/rand"
	"net/http"
	"time"
)

type ServerConfig struct {
	Port int
}

// Start runs a local target server with endpoints shaped to exercise every
// scoring threshold of the engine. It returns immediately; the server runs
// in the background.
func Start(cfg ServerConfig) {
	mux := http.NewServeMux()

	// Always healthy, fast. HEAD-friendly for monitor checks.
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// 10-50ms: should score 100.
	mux.HandleFunc("/fast", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(rand.Intn(40)+10) * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("fast"))
	})

	// 250-450ms: crosses the 200ms latency deduction.
	mux.HandleFunc("/medium", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(rand.Intn(200)+250) * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("medium"))
	})

	// 1.1-2.1s: crosses the 1000ms deduction and the monitor's SLA tiers.
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(rand.Intn(1000)+1100) * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("slow"))
	})

	// Fails ~30% of the time: drives the error-rate deductions.
	mux.HandleFunc("/flaky", func(w http.ResponseWriter, r *http.Request) {
		if rand.Float32() < 0.3 {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
			return
		}
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Always down.
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("Dummy target running on http://localhost%s\n", addr)
	fmt.Println("   Endpoints: /health, /fast, /medium, /slow, /flaky, /down")

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server failed: %v\n", err)
		}
	}()
}
