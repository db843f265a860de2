package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/oss-sentinel/sentinel/internal/domain"
)

const userAgent = "OSS-Status-Sentinel/1.0"

// Checker performs a single probe for a given service spec.
type Checker interface {
	Check(ctx context.Context, spec domain.ServiceSpec) domain.ProbeOutcome
}

type HTTPChecker struct {
	Client *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout},
	}
}

// Check issues exactly one request and classifies the result. It never
// retries, persists, or notifies; converting the outcome into side
// effects is the caller's job.
func (c *HTTPChecker) Check(ctx context.Context, spec domain.ServiceSpec) domain.ProbeOutcome {
	out := domain.ProbeOutcome{
		Timestamp:   time.Now().UTC(),
		ServiceName: spec.Name,
		URL:         spec.URL,
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, nil)
	if err != nil {
		out.Status = domain.StatusFailure
		out.Details = err.Error()
		return out
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.Client.Do(req)
	elapsed := time.Since(start).Seconds()
	out.ResponseTime = &elapsed
	if err != nil {
		// Transport-level failure: no status code at all.
		out.Status = domain.StatusFailure
		out.Details = err.Error()
		return out
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	out.StatusCode = &code
	if code == spec.ExpectedStatus {
		out.Status = domain.StatusSuccess
	} else {
		out.Status = domain.StatusFailure
		out.Details = fmt.Sprintf("unexpected status code %d (expected %d)", code, spec.ExpectedStatus)
	}
	return out
}
