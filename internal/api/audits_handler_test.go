package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/siteaudit/internal/api"
	"github.com/jonesrussell/siteaudit/internal/domain"
	"github.com/jonesrussell/siteaudit/internal/jobstore"
	"github.com/jonesrussell/siteaudit/internal/logger"
)

// fakeStore is a hand-written JobStore double.
type fakeStore struct {
	jobs      map[string]*domain.Job
	createErr error
	getErr    error
	cancelErr error
	statsErr  error
	created   *domain.Job
	canceled  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[string]*domain.Job)}
}

func (s *fakeStore) Create(_ context.Context, job *domain.Job) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = job
	s.jobs[job.ID] = job
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*domain.Job, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.jobs[id], nil
}

func (s *fakeStore) RequestCancel(_ context.Context, id string) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.canceled = append(s.canceled, id)
	return nil
}

func (s *fakeStore) QueueStats(_ context.Context) (map[domain.JobStatus]int, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}

	stats := map[domain.JobStatus]int{}
	for _, j := range s.jobs {
		stats[j.Status]++
	}
	return stats, nil
}

// newTestRouter wires the handler under test into a bare gin engine.
func newTestRouter(store api.JobStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := api.NewAuditsHandler(store, logger.NewNoOp())

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/audits", h.SubmitAudit)
	v1.GET("/audits/:id", h.GetStatus)
	v1.GET("/audits/:id/results", h.GetResults)
	v1.DELETE("/audits/:id", h.CancelAudit)
	v1.GET("/queue/stats", h.GetQueueStats)

	return r
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitAudit_Success(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := newTestRouter(store)

	w := doJSON(r, http.MethodPost, "/api/v1/audits", map[string]any{
		"url":       "https://example.com",
		"type":      "site_audit",
		"max_pages": 25,
		"max_depth": 2,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp api.SubmitAuditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, domain.JobStatusQueued, resp.Status)

	require.NotNil(t, store.created)
	assert.Equal(t, domain.JobTypeSiteAudit, store.created.Type)
	assert.Equal(t, 25, store.created.Params.MaxPages)
	assert.Equal(t, "https://example.com", store.created.Params.URL)
}

func TestSubmitAudit_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing url", map[string]any{"type": "site_audit"}},
		{"missing type", map[string]any{"url": "https://example.com"}},
		{"unknown type", map[string]any{"url": "https://example.com", "type": "deep_audit"}},
		{"bad scheme", map[string]any{"url": "ftp://example.com", "type": "site_audit"}},
		{"not a url", map[string]any{"url": "no scheme here", "type": "page_audit"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			r := newTestRouter(store)

			w := doJSON(r, http.MethodPost, "/api/v1/audits", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Nil(t, store.created, "no job should be created")
		})
	}
}

func TestSubmitAudit_StoreFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.createErr = errors.New("redis down")
	r := newTestRouter(store)

	w := doJSON(r, http.MethodPost, "/api/v1/audits", map[string]any{
		"url":  "https://example.com",
		"type": "page_audit",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetStatus(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	now := time.Now()
	store.jobs["abc"] = &domain.Job{
		ID:        "abc",
		Type:      domain.JobTypeSiteAudit,
		Status:    domain.JobStatusProcessing,
		Progress:  42,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r := newTestRouter(store)

	w := doJSON(r, http.MethodGet, "/api/v1/audits/abc", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.JobStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "abc", resp.ID)
	assert.Equal(t, domain.JobStatusProcessing, resp.Status)
	assert.Equal(t, 42, resp.Progress)
}

func TestGetStatus_NotFound(t *testing.T) {
	t.Parallel()

	r := newTestRouter(newFakeStore())

	w := doJSON(r, http.MethodGet, "/api/v1/audits/ghost", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		job      *domain.Job
		wantCode int
	}{
		{
			"completed with results",
			&domain.Job{ID: "j", Status: domain.JobStatusCompleted, Results: &domain.SiteReport{Score: 88}},
			http.StatusOK,
		},
		{
			"failed with partial results",
			&domain.Job{ID: "j", Status: domain.JobStatusFailed, Error: "aborted", Results: &domain.SiteReport{Score: 30}},
			http.StatusOK,
		},
		{
			"still processing",
			&domain.Job{ID: "j", Status: domain.JobStatusProcessing, Progress: 50},
			http.StatusConflict,
		},
		{
			"still queued",
			&domain.Job{ID: "j", Status: domain.JobStatusQueued},
			http.StatusConflict,
		},
		{
			"failed without results",
			&domain.Job{ID: "j", Status: domain.JobStatusFailed, Error: "invalid seed url"},
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.jobs["j"] = tt.job
			r := newTestRouter(store)

			w := doJSON(r, http.MethodGet, "/api/v1/audits/j/results", nil)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())

			if tt.wantCode == http.StatusOK {
				var report domain.SiteReport
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
				assert.Equal(t, tt.job.Results.Score, report.Score)
			}
		})
	}
}

func TestCancelAudit(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := newTestRouter(store)

	w := doJSON(r, http.MethodDelete, "/api/v1/audits/xyz", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"xyz"}, store.canceled)
}

func TestCancelAudit_TerminalJobConflicts(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.cancelErr = fmt.Errorf("wrapped: %w", jobstore.ErrJobTerminal)
	r := newTestRouter(store)

	w := doJSON(r, http.MethodDelete, "/api/v1/audits/done", nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, store.canceled)
}

func TestCancelAudit_NotFound(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.cancelErr = fmt.Errorf("wrapped: %w", jobstore.ErrJobNotFound)
	r := newTestRouter(store)

	w := doJSON(r, http.MethodDelete, "/api/v1/audits/ghost", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetQueueStats(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.jobs["a"] = &domain.Job{ID: "a", Status: domain.JobStatusQueued}
	store.jobs["b"] = &domain.Job{ID: "b", Status: domain.JobStatusCompleted}
	r := newTestRouter(store)

	w := doJSON(r, http.MethodGet, "/api/v1/queue/stats", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Counts map[domain.JobStatus]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, 1, resp.Counts[domain.JobStatusQueued])
	assert.Equal(t, 1, resp.Counts[domain.JobStatusCompleted])
}
