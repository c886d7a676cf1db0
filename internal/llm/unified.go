package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default chat-completion endpoints for OpenAI-compatible providers.
var unifiedBaseURLs = map[string]string{
	ProviderGroq:       "https://api.groq.com/openai/v1",
	ProviderMistral:    "https://api.mistral.ai/v1",
	ProviderCohere:     "https://api.cohere.ai/compatibility/v1",
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
}

// UnifiedProvider implements Provider over the OpenAI-compatible chat
// completions wire format shared by groq, mistral, cohere and openrouter.
type UnifiedProvider struct {
	provider   string
	model      string
	apiKey     string
	baseURL    string
	maxRetries int
	pricing    *PricingLoader
	httpClient *http.Client
}

// UnifiedConfig configures a unified adapter instance.
type UnifiedConfig struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
	Timeout    time.Duration
	Pricing    *PricingLoader
}

// NewUnifiedProvider creates an adapter for an OpenAI-compatible provider.
func NewUnifiedProvider(cfg UnifiedConfig) (*UnifiedProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", cfg.Provider)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: model is required", cfg.Provider)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = unifiedBaseURLs[cfg.Provider]
	}
	if baseURL == "" {
		return nil, fmt.Errorf("%s: no base URL known for provider", cfg.Provider)
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &UnifiedProvider{
		provider:   cfg.Provider,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		maxRetries: cfg.MaxRetries,
		pricing:    cfg.Pricing,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *UnifiedProvider) Name() string  { return p.provider }
func (p *UnifiedProvider) Model() string { return p.model }

// Capabilities reports streaming only; structured output goes through the
// facade's markdown parsing fallback.
func (p *UnifiedProvider) Capabilities() Capabilities {
	return Capabilities{Streaming: true, StructuredOutput: false}
}

func (p *UnifiedProvider) buildBody(req *GenerationRequest, stream bool) map[string]any {
	var messages []map[string]string
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]any{
		"model":    p.model,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		body["top_p"] = req.TopP
	}
	if stream {
		body["stream"] = true
	}
	return body
}

func (p *UnifiedProvider) doRequest(ctx context.Context, body map[string]any) (*http.Response, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, NewGenerationError(p.provider, "request failed: "+err.Error(), "", KindNetworkError, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		kind := ClassifyHTTPStatus(resp.StatusCode)
		return nil, NewGenerationError(p.provider,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(respBody)),
			fmt.Sprintf("%d", resp.StatusCode), kind, nil)
	}

	return resp, nil
}

// chatResponse is the OpenAI-compatible completion response shape.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// GenerateContent performs a chat completion with retry on transient errors.
func (p *UnifiedProvider) GenerateContent(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	body := p.buildBody(req, false)
	start := time.Now()

	parsed, err := withRetry(ctx, p.maxRetries, func() (*chatResponse, error) {
		resp, err := p.doRequest(ctx, body)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, NewGenerationError(p.provider, "failed to read response: "+err.Error(), "", KindNetworkError, err)
		}

		var cr chatResponse
		if err := json.Unmarshal(respBody, &cr); err != nil {
			return nil, NewGenerationError(p.provider, "failed to parse response: "+err.Error(), "", KindAPIError, err)
		}
		if len(cr.Choices) == 0 {
			return nil, NewGenerationError(p.provider, "empty response from provider", "", KindAPIError, nil)
		}
		return &cr, nil
	})
	if err != nil {
		return nil, err
	}

	return &GenerationResult{
		Content:      parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		Cost:         p.EstimateCost(parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens),
		LatencyMs:    int(time.Since(start).Milliseconds()),
		Model:        p.model,
		Provider:     p.provider,
		FinishReason: parsed.Choices[0].FinishReason,
	}, nil
}

// GenerateStructuredBlog is not supported for unified providers.
func (p *UnifiedProvider) GenerateStructuredBlog(ctx context.Context, req *GenerationRequest) (*StructuredBlog, *GenerationResult, error) {
	return nil, nil, NewGenerationError(p.provider,
		"structured output not supported", "", KindAPIError, nil)
}

// StreamContent starts a streaming chat completion over SSE.
func (p *UnifiedProvider) StreamContent(ctx context.Context, req *GenerationRequest) (*Stream, error) {
	body := p.buildBody(req, true)

	resp, err := p.doRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	stream := newStream()
	go p.pump(resp, stream)
	return stream, nil
}

// streamDelta is one SSE data frame of an OpenAI-compatible stream.
type streamDelta struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *UnifiedProvider) pump(resp *http.Response, stream *Stream) {
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}

		var delta streamDelta
		if err := json.Unmarshal([]byte(payload), &delta); err != nil {
			continue // skip malformed frames
		}
		if len(delta.Choices) == 0 || delta.Choices[0].Delta.Content == "" {
			continue
		}
		if !stream.send(StreamChunk{Content: delta.Choices[0].Delta.Content}) {
			stream.finish(nil)
			return
		}
	}

	if err := scanner.Err(); err != nil {
		stream.finish(NewGenerationError(p.provider, "stream read failed: "+err.Error(), "", KindNetworkError, err))
		return
	}
	stream.finish(nil)
}

// ValidateAPIKey probes the credential with a one-token request. Only a
// 401-class rejection yields false; transient failures presume validity.
func (p *UnifiedProvider) ValidateAPIKey(ctx context.Context) (bool, error) {
	probe := &GenerationRequest{Prompt: "ping", MaxTokens: 1}
	body := p.buildBody(probe, false)

	resp, err := p.doRequest(ctx, body)
	if err != nil {
		if IsAuthError(err) {
			return false, nil
		}
		return true, nil
	}
	resp.Body.Close()
	return true, nil
}

// HealthCheck probes availability without propagating errors.
func (p *UnifiedProvider) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	probe := &GenerationRequest{Prompt: "ping", MaxTokens: 1}

	resp, err := p.doRequest(ctx, p.buildBody(probe, false))
	status := HealthStatus{
		Healthy:   err == nil,
		LatencyMs: int(time.Since(start).Milliseconds()),
	}
	if err != nil {
		status.Error = err.Error()
	} else {
		resp.Body.Close()
	}
	return status
}

// EstimateCost returns estimated USD cost for the bound model.
func (p *UnifiedProvider) EstimateCost(inputTokens, outputTokens int) float64 {
	if p.pricing != nil {
		return p.pricing.EstimateCost(inputTokens, outputTokens, p.model)
	}
	return EstimateCost(inputTokens, outputTokens, p.model)
}
