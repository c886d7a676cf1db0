package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blogforge/blogforge-api/internal/models"
)

func seedUsage(t *testing.T, svc *UsageService, entries []*models.UsageLogEntry) {
	t.Helper()
	for _, e := range entries {
		if err := svc.repos.UsageLog.Create(context.Background(), e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
}

func TestUsageServiceSummaryAndBreakdown(t *testing.T) {
	repos := setupTestRepos(t)
	svc := NewUsageService(repos, slog.Default())

	// Seed strictly inside the default 30-day window; the range end is
	// exclusive at second precision.
	at := time.Now().UTC().Add(-time.Minute)
	seedUsage(t, svc, []*models.UsageLogEntry{
		{UserID: "user-1", Provider: "groq", Model: "llama-3.1-8b-instant", Operation: "blog", InputTokens: 100, OutputTokens: 200, EstimatedCost: 0.01, Success: true, CreatedAt: at},
		{UserID: "user-1", Provider: "groq", Model: "llama-3.1-8b-instant", Operation: "blog", Success: false, ErrorMessage: "rate limited", ErrorCategory: "rate_limit", CreatedAt: at},
		{UserID: "user-1", Provider: "openai", Model: "gpt-4o-mini", Operation: "seo", InputTokens: 50, OutputTokens: 60, EstimatedCost: 0.002, Success: true, CreatedAt: at},
		{UserID: "user-2", Provider: "groq", Model: "llama-3.1-8b-instant", Operation: "blog", InputTokens: 10, OutputTokens: 10, Success: true, CreatedAt: at},
	})

	// Zero start/end defaults to the last 30 days.
	summary, err := svc.GetSummary(context.Background(), "user-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if summary.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", summary.TotalRequests)
	}
	if summary.SuccessCount != 2 {
		t.Errorf("SuccessCount = %d, want 2", summary.SuccessCount)
	}
	if summary.InputTokens != 150 || summary.OutputTokens != 260 {
		t.Errorf("tokens = %d/%d, want 150/260", summary.InputTokens, summary.OutputTokens)
	}

	breakdown, err := svc.GetProviderBreakdown(context.Background(), "user-1", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetProviderBreakdown() error = %v", err)
	}
	if len(breakdown) != 2 {
		t.Fatalf("breakdown rows = %d, want 2", len(breakdown))
	}
	byProvider := map[string]*models.ProviderUsage{}
	for _, row := range breakdown {
		byProvider[row.Provider] = row
	}
	if row := byProvider["groq"]; row == nil || row.Requests != 2 || row.SuccessCount != 1 {
		t.Errorf("groq breakdown = %+v, want 2 requests 1 success", row)
	}
	if row := byProvider["openai"]; row == nil || row.Requests != 1 {
		t.Errorf("openai breakdown = %+v, want 1 request", row)
	}
}

func TestUsageServiceEntriesLimitClamp(t *testing.T) {
	repos := setupTestRepos(t)
	svc := NewUsageService(repos, slog.Default())

	now := time.Now().UTC()
	seedUsage(t, svc, []*models.UsageLogEntry{
		{UserID: "user-1", Provider: "groq", Model: "m", Operation: "blog", Success: true, CreatedAt: now.Add(-3 * time.Minute)},
		{UserID: "user-1", Provider: "groq", Model: "m", Operation: "blog", Success: true, CreatedAt: now.Add(-2 * time.Minute)},
		{UserID: "user-1", Provider: "groq", Model: "m", Operation: "blog", Success: true, CreatedAt: now.Add(-1 * time.Minute)},
	})

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"explicit limit", 2, 2},
		{"zero clamps to default", 0, 3},
		{"over max clamps to default", 10000, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := svc.GetEntries(context.Background(), "user-1", time.Time{}, time.Time{}, tt.limit)
			if err != nil {
				t.Fatalf("GetEntries() error = %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("entries = %d, want %d", len(entries), tt.want)
			}
		})
	}

	// Newest first
	entries, err := svc.GetEntries(context.Background(), "user-1", time.Time{}, time.Time{}, 3)
	if err != nil {
		t.Fatalf("GetEntries() error = %v", err)
	}
	if len(entries) == 3 && entries[0].CreatedAt.Before(entries[2].CreatedAt) {
		t.Error("entries not ordered newest first")
	}
}
