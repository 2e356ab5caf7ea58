package domain_test

import (
	"errors"
	"testing"

	"github.com/jonesrussell/siteaudit/internal/domain"
)

func TestParseJobType(t *testing.T) {
	t.Parallel()

	if got, err := domain.ParseJobType("site_audit"); err != nil || got != domain.JobTypeSiteAudit {
		t.Errorf("ParseJobType(site_audit) = %v, %v", got, err)
	}
	if got, err := domain.ParseJobType("page_audit"); err != nil || got != domain.JobTypePageAudit {
		t.Errorf("ParseJobType(page_audit) = %v, %v", got, err)
	}

	if _, err := domain.ParseJobType("full_audit"); !errors.Is(err, domain.ErrUnknownJobType) {
		t.Errorf("expected ErrUnknownJobType, got %v", err)
	}
	if _, err := domain.ParseJobType(""); err == nil {
		t.Error("empty type should be rejected")
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	t.Parallel()

	terminal := map[domain.JobStatus]bool{
		domain.JobStatusQueued:     false,
		domain.JobStatusProcessing: false,
		domain.JobStatusCompleted:  true,
		domain.JobStatusFailed:     true,
	}

	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestEffectiveParams_PageAuditCollapsesBounds(t *testing.T) {
	t.Parallel()

	job := &domain.Job{
		Type:   domain.JobTypePageAudit,
		Params: domain.JobParams{URL: "https://example.com", MaxPages: 50, MaxDepth: 3},
	}

	p := job.EffectiveParams()

	if p.MaxPages != 1 {
		t.Errorf("MaxPages = %d, want 1", p.MaxPages)
	}
	if p.MaxDepth != 0 {
		t.Errorf("MaxDepth = %d, want 0", p.MaxDepth)
	}
	if p.URL != "https://example.com" {
		t.Errorf("URL = %q", p.URL)
	}
}

func TestEffectiveParams_SiteAuditKeepsBounds(t *testing.T) {
	t.Parallel()

	job := &domain.Job{
		Type:   domain.JobTypeSiteAudit,
		Params: domain.JobParams{MaxPages: 25, MaxDepth: 2},
	}

	p := job.EffectiveParams()

	if p.MaxPages != 25 || p.MaxDepth != 2 {
		t.Errorf("params = %+v, want submitted bounds kept", p)
	}
}

func TestPageAnalysis_Score(t *testing.T) {
	t.Parallel()

	tests := []struct {
		meta, content, technical int
		want                     int
	}{
		{100, 100, 100, 100},
		{0, 0, 0, 0},
		{90, 80, 70, 80},
		{100, 100, 99, 100}, // 99.67 rounds up
		{50, 50, 51, 50},    // 50.33 rounds down
	}

	for _, tt := range tests {
		p := domain.PageAnalysis{
			MetaScore:      tt.meta,
			ContentScore:   tt.content,
			TechnicalScore: tt.technical,
		}

		if got := p.Score(); got != tt.want {
			t.Errorf("Score(%d, %d, %d) = %d, want %d", tt.meta, tt.content, tt.technical, got, tt.want)
		}
	}
}
