// Package domain provides the domain models shared across the service.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// JobType identifies the audit pipeline a job runs.
type JobType string

const (
	// JobTypePageAudit audits a single page (maxPages=1, maxDepth=0).
	JobTypePageAudit JobType = "page_audit"

	// JobTypeSiteAudit crawls the site and audits every fetched page.
	JobTypeSiteAudit JobType = "site_audit"
)

// ErrUnknownJobType is returned when a job type string is not recognized.
var ErrUnknownJobType = errors.New("unknown job type")

// ParseJobType validates a job type string.
func ParseJobType(s string) (JobType, error) {
	switch JobType(s) {
	case JobTypePageAudit, JobTypeSiteAudit:
		return JobType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownJobType, s)
	}
}

// JobStatus represents the lifecycle state of a job.
type JobStatus string

const (
	// JobStatusQueued means the job is waiting for a worker slot.
	JobStatusQueued JobStatus = "queued"

	// JobStatusProcessing means a worker is running the job.
	JobStatusProcessing JobStatus = "processing"

	// JobStatusCompleted means the job finished and results are available.
	JobStatusCompleted JobStatus = "completed"

	// JobStatusFailed means the job finished with an error.
	JobStatusFailed JobStatus = "failed"
)

// Terminal reports whether the status is final. Terminal jobs are immutable.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobParams holds the crawl parameters a job was submitted with.
type JobParams struct {
	URL               string `json:"url"`
	MaxPages          int    `json:"max_pages"`
	MaxDepth          int    `json:"max_depth"`
	RespectRobots     bool   `json:"respect_robots"`
	IncludeSubdomains bool   `json:"include_subdomains"`
	DelayMs           int    `json:"delay_ms"`
}

// Job is one unit of asynchronous crawl+analysis work.
// It is owned by the job store and mutated only through its transitions.
type Job struct {
	ID              string      `json:"id"`
	Type            JobType     `json:"type"`
	Params          JobParams   `json:"params"`
	Status          JobStatus   `json:"status"`
	Progress        int         `json:"progress"`
	CancelRequested bool        `json:"cancel_requested,omitempty"`
	Error           string      `json:"error,omitempty"`
	Results         *SiteReport `json:"results,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// EffectiveParams returns the crawl bounds the job's type dictates.
// A page audit always collapses to a single fetch regardless of the
// submitted limits.
func (j *Job) EffectiveParams() JobParams {
	p := j.Params
	if j.Type == JobTypePageAudit {
		p.MaxPages = 1
		p.MaxDepth = 0
	}
	return p
}
