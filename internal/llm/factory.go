package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// InstanceKey identifies a cached adapter instance. Using a struct key
// avoids ambiguity between separator-containing provider and model names.
type InstanceKey struct {
	Provider string
	Model    string
	Scope    string // user id, or a one-shot marker for validation probes
}

// scopeValidation marks throwaway instances created for config validation;
// they are evicted as soon as the probe completes.
const scopeValidation = "__validation__"

// providerSpec is the factory's static knowledge about a provider.
type providerSpec struct {
	mode         string // native or unified
	defaultModel string
}

var providerSpecs = map[string]providerSpec{
	ProviderOpenAI:     {mode: "native", defaultModel: "gpt-4o-mini"},
	ProviderAnthropic:  {mode: "native", defaultModel: "claude-3-5-sonnet-20241022"},
	ProviderGroq:       {mode: "unified", defaultModel: "llama-3.1-70b-versatile"},
	ProviderMistral:    {mode: "unified", defaultModel: "mistral-large-latest"},
	ProviderCohere:     {mode: "unified", defaultModel: "command-r-plus"},
	ProviderOpenRouter: {mode: "unified", defaultModel: "openai/gpt-4o-mini"},
}

// ProviderConfig carries everything needed to build an adapter instance.
type ProviderConfig struct {
	Provider string
	Model    string // empty means provider default
	APIKey   string
	BaseURL  string // optional override
	Scope    string // cache scope, typically the user id
}

// Factory builds and caches provider adapters.
type Factory struct {
	mu         sync.Mutex
	cache      map[InstanceKey]Provider
	pricing    *PricingLoader
	maxRetries int
	timeout    time.Duration
	logger     *slog.Logger
}

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	Pricing    *PricingLoader
	MaxRetries int
	Timeout    time.Duration
	Logger     *slog.Logger
}

// NewFactory creates an adapter factory.
func NewFactory(cfg FactoryConfig) *Factory {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Factory{
		cache:      make(map[InstanceKey]Provider),
		pricing:    cfg.Pricing,
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}
}

// SupportedProviders returns the canonical names the factory can build.
func (f *Factory) SupportedProviders() []string {
	return []string{
		ProviderOpenAI, ProviderAnthropic, ProviderGroq,
		ProviderMistral, ProviderCohere, ProviderOpenRouter,
	}
}

// Modes returns the adapter mode per provider (native or unified).
func (f *Factory) Modes() map[string]string {
	modes := make(map[string]string, len(providerSpecs))
	for name, spec := range providerSpecs {
		modes[name] = spec.mode
	}
	return modes
}

// DefaultModel returns the default model for a provider, or "" if unknown.
func (f *Factory) DefaultModel(provider string) string {
	return providerSpecs[provider].defaultModel
}

// CreateProvider returns a cached adapter for the config, building one on
// first use. Unknown providers and missing credentials yield descriptive
// errors.
func (f *Factory) CreateProvider(cfg ProviderConfig) (Provider, error) {
	spec, ok := providerSpecs[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unsupported provider %q (supported: %v)", cfg.Provider, f.SupportedProviders())
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key available for provider %s", cfg.Provider)
	}

	model := cfg.Model
	if model == "" {
		model = spec.defaultModel
	}

	key := InstanceKey{Provider: cfg.Provider, Model: model, Scope: cfg.Scope}

	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.cache[key]; ok {
		return cached, nil
	}

	provider, err := f.build(cfg.Provider, model, cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	f.cache[key] = provider
	f.logger.Debug("provider adapter created",
		"provider", cfg.Provider,
		"model", model,
		"scope", cfg.Scope,
	)
	return provider, nil
}

func (f *Factory) build(provider, model, apiKey, baseURL string) (Provider, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:     apiKey,
			Model:      model,
			BaseURL:    baseURL,
			MaxRetries: f.maxRetries,
			Pricing:    f.pricing,
		})
	case ProviderAnthropic:
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:     apiKey,
			Model:      model,
			BaseURL:    baseURL,
			MaxRetries: f.maxRetries,
			Pricing:    f.pricing,
		})
	default:
		return NewUnifiedProvider(UnifiedConfig{
			Provider:   provider,
			APIKey:     apiKey,
			Model:      model,
			BaseURL:    baseURL,
			MaxRetries: f.maxRetries,
			Timeout:    f.timeout,
			Pricing:    f.pricing,
		})
	}
}

// ValidateProviderConfig builds a one-shot adapter, probes the credential
// and evicts the instance regardless of outcome.
func (f *Factory) ValidateProviderConfig(ctx context.Context, cfg ProviderConfig) (bool, error) {
	cfg.Scope = scopeValidation
	provider, err := f.CreateProvider(cfg)
	if err != nil {
		return false, err
	}
	defer f.evict(InstanceKey{Provider: cfg.Provider, Model: provider.Model(), Scope: scopeValidation})

	return provider.ValidateAPIKey(ctx)
}

// ListProviderModels returns the known model list for a provider from the
// static pricing table. The one-shot instance path is unnecessary here since
// model lists are static, but the signature mirrors validation for callers.
func (f *Factory) ListProviderModels(provider string) ([]string, error) {
	if _, ok := providerSpecs[provider]; !ok {
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}

	var models []string
	for model := range defaultModelPricing {
		if providerForModel(model) == provider {
			models = append(models, model)
		}
	}
	return models, nil
}

// providerForModel guesses the owning provider from model naming patterns.
func providerForModel(model string) string {
	switch {
	case len(model) > 4 && model[:4] == "gpt-":
		return ProviderOpenAI
	case len(model) > 7 && model[:7] == "claude-":
		return ProviderAnthropic
	case len(model) > 6 && model[:6] == "llama-", len(model) > 8 && model[:8] == "mixtral-":
		return ProviderGroq
	case len(model) > 8 && model[:8] == "mistral-":
		return ProviderMistral
	case len(model) > 7 && model[:7] == "command":
		return ProviderCohere
	default:
		return ProviderOpenRouter
	}
}

// Evict removes all cached instances for a scope. Used when a user's keys
// or preferences change.
func (f *Factory) Evict(scope string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key := range f.cache {
		if key.Scope == scope {
			delete(f.cache, key)
		}
	}
}

func (f *Factory) evict(key InstanceKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cache, key)
}

// CacheSize returns the number of cached adapter instances.
func (f *Factory) CacheSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}
