package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/siteaudit/internal/crawler"
	"github.com/jonesrussell/siteaudit/internal/domain"
	"github.com/jonesrussell/siteaudit/internal/jobstore"
	"github.com/jonesrussell/siteaudit/internal/logger"
)

// JobStore is the handler's view of the job store.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	RequestCancel(ctx context.Context, id string) error
	QueueStats(ctx context.Context) (map[domain.JobStatus]int, error)
}

// AuditsHandler handles audit job HTTP requests. The UI layer only ever
// submits jobs and polls status/results; it never touches the crawler or
// analyzers directly.
type AuditsHandler struct {
	store  JobStore
	logger logger.Interface
}

// NewAuditsHandler creates an AuditsHandler.
func NewAuditsHandler(store JobStore, log logger.Interface) *AuditsHandler {
	return &AuditsHandler{
		store:  store,
		logger: log.WithComponent("api"),
	}
}

// SubmitAudit handles POST /api/v1/audits.
func (h *AuditsHandler) SubmitAudit(c *gin.Context) {
	var req SubmitAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	jobType, typeErr := domain.ParseJobType(req.Type)
	if typeErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": typeErr.Error()})
		return
	}

	if seedErr := crawler.ValidateSeed(req.URL); seedErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid url: " + seedErr.Error()})
		return
	}

	now := time.Now()
	job := &domain.Job{
		ID:   uuid.New().String(),
		Type: jobType,
		Params: domain.JobParams{
			URL:               req.URL,
			MaxPages:          req.MaxPages,
			MaxDepth:          req.MaxDepth,
			RespectRobots:     req.RespectRobots,
			IncludeSubdomains: req.IncludeSubdomains,
			DelayMs:           req.DelayMs,
		},
		Status:    domain.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.Create(c.Request.Context(), job); err != nil {
		h.logger.Error("create job failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	c.JSON(http.StatusCreated, SubmitAuditResponse{JobID: job.ID, Status: job.Status})
}

// GetStatus handles GET /api/v1/audits/:id.
func (h *AuditsHandler) GetStatus(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, JobStatusResponse{
		ID:        job.ID,
		Type:      job.Type,
		Status:    job.Status,
		Progress:  job.Progress,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	})
}

// GetResults handles GET /api/v1/audits/:id/results. Results are only
// available once the job reaches a terminal state; failed jobs may carry
// partial results.
func (h *AuditsHandler) GetResults(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}

	if !job.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "results not ready",
			"status": job.Status,
		})
		return
	}

	if job.Results == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "job produced no results",
			"status": job.Status,
			"detail": job.Error,
		})
		return
	}

	c.JSON(http.StatusOK, job.Results)
}

// CancelAudit handles DELETE /api/v1/audits/:id. Cancellation is
// cooperative: the flag is checked between page fetches and partial
// results are persisted.
func (h *AuditsHandler) CancelAudit(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	err := h.store.RequestCancel(c.Request.Context(), id)
	switch {
	case errors.Is(err, jobstore.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, jobstore.ErrJobTerminal):
		c.JSON(http.StatusConflict, gin.H{"error": "job already finished"})
	case err != nil:
		h.logger.Error("cancel request failed", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to request cancellation"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "cancellation requested"})
	}
}

// GetQueueStats handles GET /api/v1/queue/stats.
func (h *AuditsHandler) GetQueueStats(c *gin.Context) {
	stats, err := h.store.QueueStats(c.Request.Context())
	if err != nil {
		h.logger.Error("queue stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read queue stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"counts": stats})
}

// loadJob resolves the :id param to a job, writing the error response on
// failure.
func (h *AuditsHandler) loadJob(c *gin.Context) (*domain.Job, bool) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return nil, false
	}

	job, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("load job failed", "job_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return nil, false
	}

	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return nil, false
	}

	return job, true
}
