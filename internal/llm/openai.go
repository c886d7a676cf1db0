package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider implements Provider using the official OpenAI Go SDK.
type OpenAIProvider struct {
	client     openai.Client // NewClient returns Client (not *Client)
	model      string
	maxRetries int
	pricing    *PricingLoader
}

// OpenAIConfig configures an OpenAI adapter instance.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string // optional override for proxies
	MaxRetries int
	Pricing    *PricingLoader
}

// NewOpenAIProvider creates an OpenAI adapter bound to a model.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// The adapter layer owns retry policy
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIProvider{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		pricing:    cfg.Pricing,
	}, nil
}

func (p *OpenAIProvider) Name() string  { return ProviderOpenAI }
func (p *OpenAIProvider) Model() string { return p.model }

// Capabilities reports native streaming and structured output support.
func (p *OpenAIProvider) Capabilities() Capabilities {
	return Capabilities{Streaming: true, StructuredOutput: true}
}

func (p *OpenAIProvider) buildParams(req *GenerationRequest) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(p.model),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = openai.Float(req.TopP)
	}
	return params
}

// GenerateContent performs a chat completion with retry on transient errors.
func (p *OpenAIProvider) GenerateContent(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	params := p.buildParams(req)
	start := time.Now()

	completion, err := withRetry(ctx, p.maxRetries, func() (*openai.ChatCompletion, error) {
		c, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, p.classify(err)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	if len(completion.Choices) == 0 {
		return nil, NewGenerationError(ProviderOpenAI, "empty response from provider", "", KindAPIError, nil)
	}

	return p.buildResult(completion, start), nil
}

func (p *OpenAIProvider) buildResult(completion *openai.ChatCompletion, start time.Time) *GenerationResult {
	inputTokens := int(completion.Usage.PromptTokens)
	outputTokens := int(completion.Usage.CompletionTokens)

	return &GenerationResult{
		Content:      completion.Choices[0].Message.Content,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         p.EstimateCost(inputTokens, outputTokens),
		LatencyMs:    int(time.Since(start).Milliseconds()),
		Model:        p.model,
		Provider:     ProviderOpenAI,
		FinishReason: string(completion.Choices[0].FinishReason),
	}
}

// structuredBlogSchema is the JSON schema sent as response_format for
// native structured output.
var structuredBlogSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":            map[string]any{"type": "string"},
		"meta_description": map[string]any{"type": "string", "maxLength": 160},
		"sections": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"heading":  map[string]any{"type": "string"},
					"content":  map[string]any{"type": "string"},
					"keywords": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required":             []string{"heading", "content", "keywords"},
				"additionalProperties": false,
			},
		},
		"tags":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"seo_keywords": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	"required":             []string{"title", "meta_description", "sections", "tags", "seo_keywords"},
	"additionalProperties": false,
}

// GenerateStructuredBlog performs a completion with a JSON schema response
// format and decodes the result.
func (p *OpenAIProvider) GenerateStructuredBlog(ctx context.Context, req *GenerationRequest) (*StructuredBlog, *GenerationResult, error) {
	params := p.buildParams(req)
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        "structured_blog",
				Description: openai.String("A blog post with SEO metadata"),
				Schema:      structuredBlogSchema,
				Strict:      openai.Bool(true),
			},
		},
	}

	start := time.Now()
	completion, err := withRetry(ctx, p.maxRetries, func() (*openai.ChatCompletion, error) {
		c, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, p.classify(err)
		}
		return c, nil
	})
	if err != nil {
		return nil, nil, err
	}

	if len(completion.Choices) == 0 {
		return nil, nil, NewGenerationError(ProviderOpenAI, "empty response from provider", "", KindAPIError, nil)
	}

	result := p.buildResult(completion, start)

	var blog StructuredBlog
	if err := json.Unmarshal([]byte(result.Content), &blog); err != nil {
		return nil, nil, NewGenerationError(ProviderOpenAI,
			"structured output was not valid JSON: "+err.Error(), "", KindAPIError, err)
	}

	return &blog, result, nil
}

// StreamContent starts a streaming chat completion. Chunks are forwarded to
// the returned Stream until the provider finishes or the caller closes it.
func (p *OpenAIProvider) StreamContent(ctx context.Context, req *GenerationRequest) (*Stream, error) {
	params := p.buildParams(req)

	sse := p.client.Chat.Completions.NewStreaming(ctx, params)
	if err := sse.Err(); err != nil {
		return nil, p.classify(err)
	}

	stream := newStream()
	go p.pump(sse, stream)
	return stream, nil
}

func (p *OpenAIProvider) pump(sse *ssestream.Stream[openai.ChatCompletionChunk], stream *Stream) {
	defer sse.Close()

	for sse.Next() {
		chunk := sse.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if !stream.send(StreamChunk{Content: delta}) {
			// Consumer closed the stream
			stream.finish(nil)
			return
		}
	}

	if err := sse.Err(); err != nil {
		stream.finish(p.classify(err))
		return
	}
	stream.finish(nil)
}

// ValidateAPIKey probes the credential with a one-token request. Only a
// definitive 401/403 yields false; transient failures presume validity.
func (p *OpenAIProvider) ValidateAPIKey(ctx context.Context) (bool, error) {
	_, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage("ping")},
		Model:     openai.ChatModel(p.model),
		MaxTokens: openai.Int(1),
	})
	if err == nil {
		return true, nil
	}

	if p.classify(err).Kind == KindAuthError {
		return false, nil
	}
	return true, nil
}

// HealthCheck probes availability. Failures are reported in the status,
// never as an error.
func (p *OpenAIProvider) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	_, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:  []openai.ChatCompletionMessageParamUnion{openai.UserMessage("ping")},
		Model:     openai.ChatModel(p.model),
		MaxTokens: openai.Int(1),
	})

	status := HealthStatus{
		Healthy:   err == nil,
		LatencyMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		status.Error = err.Error()
	}
	return status
}

// EstimateCost returns estimated USD cost for the bound model.
func (p *OpenAIProvider) EstimateCost(inputTokens, outputTokens int) float64 {
	if p.pricing != nil {
		return p.pricing.EstimateCost(inputTokens, outputTokens, p.model)
	}
	return EstimateCost(inputTokens, outputTokens, p.model)
}

// classify converts SDK errors into GenerationErrors using the HTTP status
// when available.
func (p *OpenAIProvider) classify(err error) *GenerationError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		kind := ClassifyHTTPStatus(apiErr.StatusCode)
		return NewGenerationError(ProviderOpenAI, apiErr.Error(),
			fmt.Sprintf("%d", apiErr.StatusCode), kind, err)
	}
	return ClassifyError(ProviderOpenAI, err)
}
