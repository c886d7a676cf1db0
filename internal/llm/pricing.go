package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/blogforge/blogforge-api/internal/config"
)

// ModelPricing holds per-1K-token USD rates for a model.
type ModelPricing struct {
	InputPer1K  float64 `json:"input_per_1k"`
	OutputPer1K float64 `json:"output_per_1k"`
}

// defaultPricing is the conservative rate applied to unknown models so cost
// estimates err high rather than low.
var defaultPricing = ModelPricing{InputPer1K: 0.01, OutputPer1K: 0.03}

// Hardcoded per-1K rates (USD). S3 overrides take precedence when configured.
var defaultModelPricing = map[string]ModelPricing{
	// OpenAI
	"gpt-4o":        {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"gpt-4o-mini":   {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4-turbo":   {InputPer1K: 0.01, OutputPer1K: 0.03},
	"gpt-3.5-turbo": {InputPer1K: 0.0005, OutputPer1K: 0.0015},

	// Anthropic
	"claude-3-5-sonnet-20241022": {InputPer1K: 0.003, OutputPer1K: 0.015},
	"claude-3-5-haiku-20241022":  {InputPer1K: 0.0008, OutputPer1K: 0.004},
	"claude-3-opus-20240229":     {InputPer1K: 0.015, OutputPer1K: 0.075},

	// Groq
	"llama-3.1-70b-versatile": {InputPer1K: 0.00059, OutputPer1K: 0.00079},
	"llama-3.1-8b-instant":    {InputPer1K: 0.00005, OutputPer1K: 0.00008},
	"mixtral-8x7b-32768":      {InputPer1K: 0.00024, OutputPer1K: 0.00024},

	// Mistral
	"mistral-large-latest":  {InputPer1K: 0.002, OutputPer1K: 0.006},
	"mistral-medium-latest": {InputPer1K: 0.00275, OutputPer1K: 0.0081},
	"mistral-small-latest":  {InputPer1K: 0.0002, OutputPer1K: 0.0006},

	// Cohere
	"command-r-plus": {InputPer1K: 0.0025, OutputPer1K: 0.01},
	"command-r":      {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"command":        {InputPer1K: 0.001, OutputPer1K: 0.002},

	// OpenRouter passthrough models
	"openai/gpt-4o-mini":                 {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"anthropic/claude-3.5-sonnet":        {InputPer1K: 0.003, OutputPer1K: 0.015},
	"meta-llama/llama-3.1-70b-instruct":  {InputPer1K: 0.00035, OutputPer1K: 0.0004},
}

// GetModelPricing returns the static rate for a model, falling back to the
// conservative default for unknown models.
func GetModelPricing(model string) ModelPricing {
	if p, ok := defaultModelPricing[model]; ok {
		return p
	}
	return defaultPricing
}

// EstimateCost computes estimated USD cost for a call. Pure function of its
// inputs given the static table.
func EstimateCost(inputTokens, outputTokens int, model string) float64 {
	p := GetModelPricing(model)
	return float64(inputTokens)*p.InputPer1K/1000 + float64(outputTokens)*p.OutputPer1K/1000
}

// PricingFile is the JSON document stored in S3 with rate overrides.
type PricingFile struct {
	ModelOverrides map[string]ModelPricing `json:"model_overrides"`
	DefaultRate    *ModelPricing           `json:"default_rate,omitempty"`
}

// PricingLoader provides S3-backed model pricing with caching.
// Falls back to the hardcoded table if the S3 file is unavailable.
type PricingLoader struct {
	loader *config.S3Loader

	mu           sync.RWMutex
	modelPricing map[string]ModelPricing
	defaultRate  ModelPricing
	logger       *slog.Logger
}

// PricingLoaderConfig holds configuration for the pricing loader.
type PricingLoaderConfig struct {
	S3Client     *s3.Client
	Bucket       string
	Key          string
	CacheTTL     time.Duration
	ErrorBackoff time.Duration
	Logger       *slog.Logger
}

// NewPricingLoader creates a pricing loader seeded with hardcoded defaults.
func NewPricingLoader(cfg PricingLoaderConfig) *PricingLoader {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	l := &PricingLoader{
		loader: config.NewS3Loader(config.S3LoaderConfig{
			S3Client:     cfg.S3Client,
			Bucket:       cfg.Bucket,
			Key:          cfg.Key,
			CacheTTL:     cfg.CacheTTL,
			ErrorBackoff: cfg.ErrorBackoff,
			Logger:       cfg.Logger,
		}),
		modelPricing: make(map[string]ModelPricing, len(defaultModelPricing)),
		defaultRate:  defaultPricing,
		logger:       cfg.Logger,
	}

	for k, v := range defaultModelPricing {
		l.modelPricing[k] = v
	}

	return l
}

// MaybeRefresh checks if we need to refresh from S3.
// Non-blocking and fails open on errors.
func (l *PricingLoader) MaybeRefresh(ctx context.Context) {
	if !l.loader.IsEnabled() || !l.loader.NeedsRefresh() {
		return
	}
	go l.refresh(context.WithoutCancel(ctx))
}

func (l *PricingLoader) refresh(ctx context.Context) {
	result, err := l.loader.Fetch(ctx)
	if err != nil || result == nil || result.NotChanged {
		return
	}

	var file PricingFile
	if err := json.Unmarshal(result.Data, &file); err != nil {
		l.logger.Error("failed to parse pricing JSON", "error", err)
		return
	}

	// Merge: hardcoded defaults first, S3 overrides on top
	merged := make(map[string]ModelPricing, len(defaultModelPricing)+len(file.ModelOverrides))
	for k, v := range defaultModelPricing {
		merged[k] = v
	}
	for k, v := range file.ModelOverrides {
		merged[k] = v
	}

	l.mu.Lock()
	l.modelPricing = merged
	if file.DefaultRate != nil {
		l.defaultRate = *file.DefaultRate
	}
	l.mu.Unlock()

	l.logger.Info("model pricing loaded from S3",
		"etag", result.Etag,
		"model_count", len(merged),
	)
}

// GetModelPricing returns the current rate for a model.
func (l *PricingLoader) GetModelPricing(model string) ModelPricing {
	l.MaybeRefresh(context.Background())

	l.mu.RLock()
	defer l.mu.RUnlock()

	if p, ok := l.modelPricing[model]; ok {
		return p
	}
	return l.defaultRate
}

// EstimateCost computes estimated USD cost using current rates.
func (l *PricingLoader) EstimateCost(inputTokens, outputTokens int, model string) float64 {
	p := l.GetModelPricing(model)
	return float64(inputTokens)*p.InputPer1K/1000 + float64(outputTokens)*p.OutputPer1K/1000
}

// Stats returns loader statistics for status endpoints.
func (l *PricingLoader) Stats() config.S3LoaderStats {
	return l.loader.Stats()
}
