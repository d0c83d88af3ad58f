package probe

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent identifies the engine in the remote server's request log.
const DefaultUserAgent = "apipulse-probe/1.0"

// Sample is the outcome of one probe. A probe never fails with an error:
// timeouts, DNS failures, refused connections and TLS errors all collapse
// into Success=false, which keeps the aggregation paths branch-free.
type Sample struct {
	Elapsed    time.Duration
	Success    bool
	StatusCode int
}

// ElapsedMs returns the elapsed time in whole milliseconds.
func (s Sample) ElapsedMs() float64 {
	return float64(s.Elapsed.Milliseconds())
}

// Prober issues single HTTP requests against a target and reports
// timing plus outcome. One Prober is shared by all campaigns and the
// monitor; the underlying transport pools connections across them.
type Prober struct {
	client    *http.Client
	userAgent string
}

// New builds a Prober with a transport tuned for high fan-out.
func New() *Prober {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &Prober{
		// Per-call timeouts come from the context, not the client.
		client:    &http.Client{Transport: t},
		userAgent: DefaultUserAgent,
	}
}

// Do issues one request and returns a Sample. The timeout bounds the whole
// exchange. Elapsed on failure is the time until the failure surfaced.
// No retries happen here; retrying is a policy decision of the caller.
func (p *Prober) Do(ctx context.Context, method, url string, timeout time.Duration) Sample {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return Sample{Elapsed: time.Since(start)}
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Sample{Elapsed: elapsed}
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return Sample{
		Elapsed:    elapsed,
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
	}
}
