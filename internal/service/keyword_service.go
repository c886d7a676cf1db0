package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blogforge/blogforge-api/internal/dataforseo"
)

// KeywordService runs keyword research through DataForSEO. Nil when the
// credentials are not configured; handlers must check Enabled.
type KeywordService struct {
	client *dataforseo.Client
	logger *slog.Logger
}

// NewKeywordService creates a keyword research service. Returns a disabled
// service when client is nil.
func NewKeywordService(client *dataforseo.Client, logger *slog.Logger) *KeywordService {
	return &KeywordService{client: client, logger: logger}
}

// Enabled reports whether keyword research is configured.
func (s *KeywordService) Enabled() bool {
	return s.client != nil
}

// KeywordAnalysis is the result of an analyze call: submitted task handles
// for search volume plus suggestions for the seed keyword.
type KeywordAnalysis struct {
	VolumeTasks     *dataforseo.TaskResponse `json:"volume_tasks,omitempty"`
	SuggestionTasks *dataforseo.TaskResponse `json:"suggestion_tasks,omitempty"`
}

// AnalyzeKeywords submits search volume tasks for the given keywords and a
// suggestion task for the first one.
func (s *KeywordService) AnalyzeKeywords(ctx context.Context, keywords []string, location string) (*KeywordAnalysis, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("keyword research is not configured")
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("at least one keyword is required")
	}
	if len(keywords) > 100 {
		return nil, fmt.Errorf("at most 100 keywords per request")
	}

	analysis := &KeywordAnalysis{}

	volume, err := s.client.GetKeywordData(ctx, keywords, location)
	if err != nil {
		return nil, fmt.Errorf("search volume lookup failed: %w", err)
	}
	analysis.VolumeTasks = volume

	// Suggestions are best effort; the volume data alone is still useful
	suggestions, err := s.client.GetKeywordSuggestions(ctx, keywords[0], location)
	if err != nil {
		s.logger.Warn("keyword suggestions failed", "keyword", keywords[0], "error", err)
	} else {
		analysis.SuggestionTasks = suggestions
	}

	return analysis, nil
}
