package api

import (
	"time"

	"github.com/jonesrussell/siteaudit/internal/domain"
)

// SubmitAuditRequest is the body of POST /api/v1/audits.
type SubmitAuditRequest struct {
	URL               string `json:"url" binding:"required"`
	Type              string `json:"type" binding:"required"`
	MaxPages          int    `json:"max_pages"`
	MaxDepth          int    `json:"max_depth"`
	RespectRobots     bool   `json:"respect_robots"`
	IncludeSubdomains bool   `json:"include_subdomains"`
	DelayMs           int    `json:"delay_ms"`
}

// SubmitAuditResponse identifies the created job.
type SubmitAuditResponse struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
}

// JobStatusResponse is the body of GET /api/v1/audits/:id.
type JobStatusResponse struct {
	ID        string           `json:"id"`
	Type      domain.JobType   `json:"type"`
	Status    domain.JobStatus `json:"status"`
	Progress  int              `json:"progress"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
