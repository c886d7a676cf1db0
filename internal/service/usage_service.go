package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/blogforge/blogforge-api/internal/models"
	"github.com/blogforge/blogforge-api/internal/repository"
)

// UsageService exposes generation usage analytics. Writes happen in the
// routing layer; this service only reads.
type UsageService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewUsageService creates a usage analytics service.
func NewUsageService(repos *repository.Repositories, logger *slog.Logger) *UsageService {
	return &UsageService{repos: repos, logger: logger}
}

// normalizeRange defaults an empty range to the last 30 days.
func normalizeRange(start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}
	return start, end
}

// GetSummary aggregates a user's usage over a period.
func (s *UsageService) GetSummary(ctx context.Context, userID string, start, end time.Time) (*models.UsageSummary, error) {
	start, end = normalizeRange(start, end)
	return s.repos.UsageLog.GetSummary(ctx, userID, start, end)
}

// GetProviderBreakdown returns per-provider usage rows for a period.
func (s *UsageService) GetProviderBreakdown(ctx context.Context, userID string, start, end time.Time) ([]*models.ProviderUsage, error) {
	start, end = normalizeRange(start, end)
	return s.repos.UsageLog.GetProviderBreakdown(ctx, userID, start, end)
}

// GetEntries returns recent usage log entries, newest first.
func (s *UsageService) GetEntries(ctx context.Context, userID string, start, end time.Time, limit int) ([]*models.UsageLogEntry, error) {
	start, end = normalizeRange(start, end)
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repos.UsageLog.GetByUserID(ctx, userID, start, end, limit)
}
