package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blogforge/blogforge-api/internal/llm"
	"github.com/blogforge/blogforge-api/internal/service"
)

// BlogHandler handles blog generation endpoints.
type BlogHandler struct {
	blogSvc *service.BlogService
}

// NewBlogHandler creates a new blog handler.
func NewBlogHandler(blogSvc *service.BlogService) *BlogHandler {
	return &BlogHandler{blogSvc: blogSvc}
}

// GenerationParams are the tunable generation settings shared by the blog
// endpoints. Zero values mean service defaults.
type GenerationParams struct {
	Prompt       string  `json:"prompt" minLength:"1" maxLength:"10000" doc:"Topic or full prompt for the post"`
	SystemPrompt string  `json:"system_prompt,omitempty" maxLength:"10000" doc:"Override the default system prompt"`
	MaxTokens    int     `json:"max_tokens,omitempty" minimum:"0" maximum:"8192" doc:"Output token budget"`
	Temperature  float64 `json:"temperature,omitempty" minimum:"0" maximum:"2" doc:"Sampling temperature"`
	TopP         float64 `json:"top_p,omitempty" minimum:"0" maximum:"1" doc:"Nucleus sampling parameter"`
	ProviderID   string  `json:"provider_id,omitempty" doc:"Use this provider directly, skipping the fallback chain"`
	ModelID      string  `json:"model_id,omitempty" doc:"Model override for the requested provider"`
}

func (p GenerationParams) toRequest() *llm.GenerationRequest {
	req := &llm.GenerationRequest{
		Prompt:       p.Prompt,
		SystemPrompt: p.SystemPrompt,
		MaxTokens:    p.MaxTokens,
		Temperature:  p.Temperature,
		TopP:         p.TopP,
	}
	if p.ProviderID != "" || p.ModelID != "" {
		req.Metadata = map[string]string{}
		if p.ProviderID != "" {
			req.Metadata[llm.MetaProviderID] = p.ProviderID
		}
		if p.ModelID != "" {
			req.Metadata[llm.MetaModelID] = p.ModelID
		}
	}
	return req
}

// GenerationMeta describes which provider served a request and what it cost.
type GenerationMeta struct {
	Provider     string  `json:"provider" doc:"Provider that served the request"`
	Model        string  `json:"model" doc:"Model used"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost" doc:"Estimated cost in USD"`
	LatencyMs    int     `json:"latency_ms"`
}

func metaFromResult(r *llm.GenerationResult) GenerationMeta {
	return GenerationMeta{
		Provider:     r.Provider,
		Model:        r.Model,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		Cost:         r.Cost,
		LatencyMs:    r.LatencyMs,
	}
}

// GenerateBlogInput is the request for plain blog generation.
type GenerateBlogInput struct {
	Body GenerationParams
}

// GenerateBlogOutput is the plain generation response.
type GenerateBlogOutput struct {
	Body struct {
		Content string         `json:"content" doc:"Generated markdown content"`
		Meta    GenerationMeta `json:"meta"`
	}
}

// GenerateBlog generates a blog post through the user's provider chain.
func (h *BlogHandler) GenerateBlog(ctx context.Context, input *GenerateBlogInput) (*GenerateBlogOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	result, err := h.blogSvc.GenerateBlogContent(ctx, userID, input.Body.toRequest())
	if err != nil {
		return nil, mapGenerationError(err)
	}

	out := &GenerateBlogOutput{}
	out.Body.Content = result.Content
	out.Body.Meta = metaFromResult(result)
	return out, nil
}

// GenerateStructuredBlogOutput is the structured generation response.
type GenerateStructuredBlogOutput struct {
	Body struct {
		Blog llm.StructuredBlog `json:"blog"`
		Meta GenerationMeta     `json:"meta"`
	}
}

// GenerateStructuredBlog generates a structured blog post.
func (h *BlogHandler) GenerateStructuredBlog(ctx context.Context, input *GenerateBlogInput) (*GenerateStructuredBlogOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	blog, result, err := h.blogSvc.GenerateStructuredBlog(ctx, userID, input.Body.toRequest())
	if err != nil {
		return nil, mapGenerationError(err)
	}

	out := &GenerateStructuredBlogOutput{}
	out.Body.Blog = *blog
	out.Body.Meta = metaFromResult(result)
	return out, nil
}

// OptimizeSeoInput is the request for SEO optimization suggestions.
type OptimizeSeoInput struct {
	Body struct {
		Content string `json:"content" minLength:"1" maxLength:"50000" doc:"Existing blog content to analyze"`
	}
}

// OptimizeSeoOutput is the SEO optimization response.
type OptimizeSeoOutput struct {
	Body struct {
		Suggestions string         `json:"suggestions" doc:"Markdown SEO suggestions"`
		Meta        GenerationMeta `json:"meta"`
	}
}

// OptimizeSeo analyzes existing content and suggests SEO improvements.
func (h *BlogHandler) OptimizeSeo(ctx context.Context, input *OptimizeSeoInput) (*OptimizeSeoOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	result, err := h.blogSvc.GenerateSeoOptimization(ctx, userID, input.Body.Content)
	if err != nil {
		return nil, mapGenerationError(err)
	}

	out := &OptimizeSeoOutput{}
	out.Body.Suggestions = result.Content
	out.Body.Meta = metaFromResult(result)
	return out, nil
}

// mapGenerationError translates routing layer errors to HTTP status codes.
// The message always names the last-failing provider and whether a retry is
// expected to help.
func mapGenerationError(err error) error {
	if errors.Is(err, llm.ErrNoProvidersAvailable) {
		return huma.Error503ServiceUnavailable("no LLM providers available; configure a provider API key")
	}
	if errors.Is(err, llm.ErrStreamingUnsupported) {
		return huma.Error503ServiceUnavailable("no streaming-capable provider available")
	}

	var genErr *llm.GenerationError
	if errors.As(err, &genErr) {
		msg := generationFailureMessage(genErr)
		switch genErr.Kind {
		case llm.KindRateLimit:
			return huma.Error429TooManyRequests(msg)
		case llm.KindAuthError, llm.KindNetworkError, llm.KindAPIError:
			return huma.Error502BadGateway(msg)
		default:
			return huma.Error500InternalServerError(msg)
		}
	}
	return huma.Error500InternalServerError("generation failed; retrying is not expected to help")
}

func generationFailureMessage(genErr *llm.GenerationError) string {
	var reason string
	switch genErr.Kind {
	case llm.KindRateLimit:
		reason = "rate limit exceeded"
	case llm.KindAuthError:
		reason = "rejected the configured credentials"
	case llm.KindNetworkError:
		reason = "unreachable"
	case llm.KindAPIError:
		reason = "returned an error"
	default:
		reason = "failed"
	}

	hint := "retrying is not expected to help"
	if genErr.Retryable {
		hint = "retrying may help"
	}
	return fmt.Sprintf("provider %s %s; %s", genErr.Provider, reason, hint)
}
