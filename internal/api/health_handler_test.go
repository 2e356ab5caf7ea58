package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/siteaudit/internal/api"
	"github.com/jonesrussell/siteaudit/internal/health"
)

func healthRequest(checker *health.Checker) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/health", api.NewHealthHandler(checker).Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	return w
}

func TestHealth_AllChecksPass(t *testing.T) {
	t.Parallel()

	checker := health.NewChecker()
	checker.Register("redis", func(_ context.Context) error { return nil })

	w := healthRequest(checker)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status        string            `json:"status"`
		Checks        map[string]string `json:"checks"`
		UptimeSeconds int64             `json:"uptime_seconds"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Checks["redis"])
}

func TestHealth_FailingCheck(t *testing.T) {
	t.Parallel()

	checker := health.NewChecker()
	checker.Register("redis", func(_ context.Context) error {
		return errors.New("connection refused")
	})

	w := healthRequest(checker)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks["redis"], "connection refused")
}

func TestHealth_NoChecksRegistered(t *testing.T) {
	t.Parallel()

	w := healthRequest(health.NewChecker())

	assert.Equal(t, http.StatusOK, w.Code)
}
