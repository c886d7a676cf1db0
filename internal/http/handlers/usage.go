package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blogforge/blogforge-api/internal/models"
	"github.com/blogforge/blogforge-api/internal/service"
)

// UsageHandler handles usage analytics endpoints.
type UsageHandler struct {
	usageSvc *service.UsageService
}

// NewUsageHandler creates a new usage handler.
func NewUsageHandler(usageSvc *service.UsageService) *UsageHandler {
	return &UsageHandler{usageSvc: usageSvc}
}

// GetUsageInput selects the reporting period.
type GetUsageInput struct {
	Start string `query:"start" format:"date" doc:"Period start (YYYY-MM-DD), defaults to 30 days ago"`
	End   string `query:"end" format:"date" doc:"Period end (YYYY-MM-DD), defaults to now"`
}

// GetUsageOutput is the usage analytics response.
type GetUsageOutput struct {
	Body struct {
		Summary   *models.UsageSummary    `json:"summary"`
		Providers []*models.ProviderUsage `json:"providers" doc:"Per-provider breakdown"`
	}
}

func parsePeriod(input *GetUsageInput) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if input.Start != "" {
		start, err = time.Parse("2006-01-02", input.Start)
		if err != nil {
			return start, end, huma.Error422UnprocessableEntity("invalid start date")
		}
	}
	if input.End != "" {
		end, err = time.Parse("2006-01-02", input.End)
		if err != nil {
			return start, end, huma.Error422UnprocessableEntity("invalid end date")
		}
		// Inclusive end day
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// GetUsage returns the caller's usage summary and per-provider breakdown.
func (h *UsageHandler) GetUsage(ctx context.Context, input *GetUsageInput) (*GetUsageOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	start, end, err := parsePeriod(input)
	if err != nil {
		return nil, err
	}

	summary, err := h.usageSvc.GetSummary(ctx, userID, start, end)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load usage summary")
	}

	providers, err := h.usageSvc.GetProviderBreakdown(ctx, userID, start, end)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load provider breakdown")
	}

	out := &GetUsageOutput{}
	out.Body.Summary = summary
	out.Body.Providers = providers
	return out, nil
}

// GetUsageEntriesInput selects the entry listing window.
type GetUsageEntriesInput struct {
	Start string `query:"start" format:"date" doc:"Period start (YYYY-MM-DD)"`
	End   string `query:"end" format:"date" doc:"Period end (YYYY-MM-DD)"`
	Limit int    `query:"limit" default:"100" minimum:"1" maximum:"500" doc:"Maximum entries to return"`
}

// GetUsageEntriesOutput is the entry listing response.
type GetUsageEntriesOutput struct {
	Body struct {
		Entries []*models.UsageLogEntry `json:"entries" doc:"Newest first"`
	}
}

// GetUsageEntries returns recent generation attempts, newest first.
func (h *UsageHandler) GetUsageEntries(ctx context.Context, input *GetUsageEntriesInput) (*GetUsageEntriesOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	start, end, err := parsePeriod(&GetUsageInput{Start: input.Start, End: input.End})
	if err != nil {
		return nil, err
	}

	entries, err := h.usageSvc.GetEntries(ctx, userID, start, end, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load usage entries")
	}

	out := &GetUsageEntriesOutput{}
	out.Body.Entries = entries
	return out, nil
}
