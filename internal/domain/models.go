package domain

import "time"

// Status is the two-valued classification of a probe.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// ServiceSpec describes one monitored endpoint. Built once from
// configuration at startup and never mutated afterwards.
type ServiceSpec struct {
	Name           string `yaml:"name" json:"name"`
	URL            string `yaml:"url" json:"url"`
	Method         string `yaml:"method" json:"method"`
	ExpectedStatus int    `yaml:"expected_status" json:"expected_status"`
}

// ProbeOutcome is the persisted record of a single probe. StatusCode is
// nil when no HTTP response was received at all; ResponseTime (seconds)
// is nil when the request failed before a duration could be measured.
type ProbeOutcome struct {
	ID           int64     `json:"id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	ServiceName  string    `json:"service_name"`
	URL          string    `json:"url"`
	Status       Status    `json:"status"`
	StatusCode   *int      `json:"status_code"`   // pointer to allow nil
	ResponseTime *float64  `json:"response_time"` // pointer to allow nil
	Details      string    `json:"details,omitempty"`
}

// Failed reports whether the outcome was classified as a failure.
func (o ProbeOutcome) Failed() bool { return o.Status == StatusFailure }
