package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blogforge/blogforge-api/internal/service"
)

// KeywordHandler handles keyword research endpoints.
type KeywordHandler struct {
	keywordSvc *service.KeywordService
}

// NewKeywordHandler creates a new keyword handler.
func NewKeywordHandler(keywordSvc *service.KeywordService) *KeywordHandler {
	return &KeywordHandler{keywordSvc: keywordSvc}
}

// AnalyzeKeywordsInput is the keyword analysis request.
type AnalyzeKeywordsInput struct {
	Body struct {
		Keywords []string `json:"keywords" minItems:"1" maxItems:"100" doc:"Keywords to analyze"`
		Location string   `json:"location,omitempty" doc:"Location name, defaults to United States"`
	}
}

// AnalyzeKeywordsOutput is the keyword analysis response.
type AnalyzeKeywordsOutput struct {
	Body service.KeywordAnalysis
}

// AnalyzeKeywords submits keyword research tasks.
func (h *KeywordHandler) AnalyzeKeywords(ctx context.Context, input *AnalyzeKeywordsInput) (*AnalyzeKeywordsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if !h.keywordSvc.Enabled() {
		return nil, huma.Error503ServiceUnavailable("keyword research is not configured")
	}

	analysis, err := h.keywordSvc.AnalyzeKeywords(ctx, input.Body.Keywords, input.Body.Location)
	if err != nil {
		return nil, huma.Error502BadGateway("keyword analysis failed")
	}

	return &AnalyzeKeywordsOutput{Body: *analysis}, nil
}
