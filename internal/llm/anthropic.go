package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// AnthropicProvider implements Provider using the official Anthropic Go SDK.
// Anthropic has no response_format equivalent, so structured blog requests
// are rejected and the facade falls back to parsing plain output.
type AnthropicProvider struct {
	client     anthropic.Client
	model      string
	maxRetries int
	pricing    *PricingLoader
}

// AnthropicConfig configures an Anthropic adapter instance.
type AnthropicConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
	Pricing    *PricingLoader
}

// NewAnthropicProvider creates an Anthropic adapter bound to a model.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-20241022"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:     anthropic.NewClient(opts...),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		pricing:    cfg.Pricing,
	}, nil
}

func (p *AnthropicProvider) Name() string  { return ProviderAnthropic }
func (p *AnthropicProvider) Model() string { return p.model }

// Capabilities reports streaming support; structured output is not native.
func (p *AnthropicProvider) Capabilities() Capabilities {
	return Capabilities{Streaming: true, StructuredOutput: false}
}

func (p *AnthropicProvider) buildParams(req *GenerationRequest) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.TopP > 0 {
		params.TopP = anthropic.Float(req.TopP)
	}
	return params
}

// GenerateContent performs a message call with retry on transient errors.
func (p *AnthropicProvider) GenerateContent(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	params := p.buildParams(req)
	start := time.Now()

	message, err := withRetry(ctx, p.maxRetries, func() (*anthropic.Message, error) {
		m, err := p.client.Messages.New(ctx, params)
		if err != nil {
			return nil, p.classify(err)
		}
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	var content string
	for _, block := range message.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return nil, NewGenerationError(ProviderAnthropic, "empty response from provider", "", KindAPIError, nil)
	}

	inputTokens := int(message.Usage.InputTokens)
	outputTokens := int(message.Usage.OutputTokens)

	return &GenerationResult{
		Content:      content,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         p.EstimateCost(inputTokens, outputTokens),
		LatencyMs:    int(time.Since(start).Milliseconds()),
		Model:        p.model,
		Provider:     ProviderAnthropic,
		FinishReason: string(message.StopReason),
	}, nil
}

// GenerateStructuredBlog is not supported natively; callers should fall back
// to GenerateContent plus markdown parsing.
func (p *AnthropicProvider) GenerateStructuredBlog(ctx context.Context, req *GenerationRequest) (*StructuredBlog, *GenerationResult, error) {
	return nil, nil, NewGenerationError(ProviderAnthropic,
		"structured output not supported", "", KindAPIError, nil)
}

// StreamContent starts a streaming message call.
func (p *AnthropicProvider) StreamContent(ctx context.Context, req *GenerationRequest) (*Stream, error) {
	params := p.buildParams(req)

	sse := p.client.Messages.NewStreaming(ctx, params)
	if err := sse.Err(); err != nil {
		return nil, p.classify(err)
	}

	stream := newStream()
	go p.pump(sse, stream)
	return stream, nil
}

func (p *AnthropicProvider) pump(sse *ssestream.Stream[anthropic.MessageStreamEventUnion], stream *Stream) {
	defer sse.Close()

	for sse.Next() {
		event := sse.Current()
		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := variant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if delta.Text == "" {
					continue
				}
				if !stream.send(StreamChunk{Content: delta.Text}) {
					stream.finish(nil)
					return
				}
			}
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
func (p *AnthropicProvider) ValidateAPIKey(ctx context.Context) (bool, error) {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err == nil {
		return true, nil
	}

	if p.classify(err).Kind == KindAuthError {
		return false, nil
	}
	return true, nil
}

// HealthCheck probes availability without propagating errors.
func (p *AnthropicProvider) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
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
func (p *AnthropicProvider) EstimateCost(inputTokens, outputTokens int) float64 {
	if p.pricing != nil {
		return p.pricing.EstimateCost(inputTokens, outputTokens, p.model)
	}
	return EstimateCost(inputTokens, outputTokens, p.model)
}

func (p *AnthropicProvider) classify(err error) *GenerationError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		kind := ClassifyHTTPStatus(apiErr.StatusCode)
		return NewGenerationError(ProviderAnthropic, apiErr.Error(),
			fmt.Sprintf("%d", apiErr.StatusCode), kind, err)
	}
	return ClassifyError(ProviderAnthropic, err)
}
