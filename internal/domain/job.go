package domain

import (
	"net/url"
	"time"
)

// JobState represents the lifecycle state of a conversion job.
type JobState string

const (
	StatePending    JobState = "PENDING"
	StateProcessing JobState = "PROCESSING"
	StateDone       JobState = "DONE"
	StateFailed     JobState = "FAILED"
)

// IsTerminal returns true if the state represents a final state.
func (s JobState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransitionTo reports whether moving from s to next is a legal
// forward transition. Terminal states never transition again.
func (s JobState) CanTransitionTo(next JobState) bool {
	switch s {
	case StatePending:
		return next == StateProcessing || next == StateFailed
	case StateProcessing:
		return next == StateDone || next == StateFailed
	}
	return false
}

// Job represents one submitted conversion request throughout its lifecycle.
// ResultPath is set if and only if the job is DONE; FailureReason is set
// if and only if the job is FAILED.
type Job struct {
	ID              string    `json:"job_id"`
	SourceURL       string    `json:"source_url"`
	State           JobState  `json:"status"`
	FailureReason   string    `json:"failure_reason,omitempty"`
	ResultPath      string    `json:"-"`
	Title           string    `json:"title,omitempty"`
	DurationSeconds int64     `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SubmitRequest represents an incoming conversion request from the API.
type SubmitRequest struct {
	URL string `json:"url" binding:"required"`
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// ResultResponse is returned by the result endpoint. DownloadURL is only
// present once the job is DONE.
type ResultResponse struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	DownloadURL   string `json:"download_url,omitempty"`
}

// ValidateSourceURL checks that raw is a well-formed absolute http(s) URL.
func ValidateSourceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
