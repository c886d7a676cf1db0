package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blogforge/blogforge-api/internal/models"
)

// routeEntry is one provider in a router's resolved attempt chain.
type routeEntry struct {
	provider Provider
	name     string
	model    string
}

// Router routes generation requests for a single user through an ordered
// provider chain with sequential fallback. Build one per user and reuse it;
// Initialize must complete before any generation call.
type Router struct {
	userID      string
	factory     *Factory
	preferences PreferenceSource
	catalog     CatalogSource
	usage       UsageRecorder
	credentials CredentialSource
	logger      *slog.Logger

	mu             sync.RWMutex
	chain          []routeEntry
	enableFallback bool
	initialized    bool
	disposed       bool
}

// RouterConfig wires a Router's collaborators.
type RouterConfig struct {
	UserID      string
	Factory     *Factory
	Preferences PreferenceSource
	Catalog     CatalogSource
	Usage       UsageRecorder
	Credentials CredentialSource
	Logger      *slog.Logger
}

// NewRouter creates an uninitialized router for a user.
func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		userID:      cfg.UserID,
		factory:     cfg.Factory,
		preferences: cfg.Preferences,
		catalog:     cfg.Catalog,
		usage:       cfg.Usage,
		credentials: cfg.Credentials,
		logger:      logger.With("user_id", cfg.UserID),
	}
}

// Initialize loads the user's preference and the enabled catalog, resolves
// credentials and builds the provider chain. Providers without a resolvable
// credential are skipped with a warning. Safe to call again to rebuild.
func (r *Router) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return ErrRouterDisposed
	}

	pref, err := r.preferences.Get(ctx, r.userID)
	if err != nil {
		return fmt.Errorf("failed to load preference: %w", err)
	}

	defs, err := r.catalog.GetEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to load provider catalog: %w", err)
	}

	byName := make(map[string]*models.ProviderDefinition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	// Attempt order: user's explicit chain first, then the remaining
	// catalog in priority order. Without a preference the catalog order
	// stands alone.
	var ordered []models.ProviderModel
	seen := make(map[string]bool)

	enableFallback := true
	maxQuality := models.QualityEnterprise
	var maxCost *float64

	if pref != nil {
		enableFallback = pref.EnableFallback
		if pref.MaxQuality != "" {
			maxQuality = pref.MaxQuality
		}
		maxCost = pref.MaxCostPer1K

		for _, pm := range pref.FallbackOrder() {
			if seen[pm.Provider] {
				continue
			}
			seen[pm.Provider] = true
			ordered = append(ordered, pm)
		}
	}

	for _, def := range defs {
		if seen[def.Name] {
			continue
		}
		// Catalog-supplied entries respect the user's quality ceiling;
		// explicitly chosen providers above are honored as-is.
		if !def.QualityTier.AtMost(maxQuality) {
			continue
		}
		seen[def.Name] = true
		ordered = append(ordered, models.ProviderModel{Provider: def.Name})
	}

	var chain []routeEntry
	for _, pm := range ordered {
		def := byName[pm.Provider]
		if def == nil {
			r.logger.Warn("preferred provider not in catalog, skipping", "provider", pm.Provider)
			continue
		}

		model := pm.Model
		if model == "" {
			model = def.DefaultModel
		}

		apiKey, baseURL, err := r.credentials.Resolve(ctx, r.userID, pm.Provider)
		if err != nil {
			r.logger.Warn("credential resolution failed, skipping provider",
				"provider", pm.Provider, "error", err)
			continue
		}
		if apiKey == "" {
			r.logger.Warn("no credential for provider, skipping", "provider", pm.Provider)
			continue
		}

		provider, err := r.factory.CreateProvider(ProviderConfig{
			Provider: pm.Provider,
			Model:    model,
			APIKey:   apiKey,
			BaseURL:  baseURL,
			Scope:    r.userID,
		})
		if err != nil {
			r.logger.Warn("failed to create provider adapter, skipping",
				"provider", pm.Provider, "error", err)
			continue
		}

		if maxCost != nil {
			perK := provider.EstimateCost(1000, 1000)
			if perK > *maxCost {
				r.logger.Warn("provider exceeds cost ceiling, skipping",
					"provider", pm.Provider, "model", model,
					"cost_per_1k", perK, "ceiling", *maxCost)
				continue
			}
		}

		chain = append(chain, routeEntry{provider: provider, name: pm.Provider, model: model})
	}

	r.chain = chain
	r.enableFallback = enableFallback
	r.initialized = true

	r.logger.Info("router initialized",
		"providers", len(chain),
		"fallback_enabled", enableFallback,
	)
	return nil
}

func (r *Router) snapshot() ([]routeEntry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.disposed {
		return nil, false, ErrRouterDisposed
	}
	if !r.initialized {
		return nil, false, fmt.Errorf("router not initialized")
	}
	return r.chain, r.enableFallback, nil
}

// GenerateContent walks the provider chain sequentially: unhealthy providers
// are skipped without counting as attempts, each real attempt writes exactly
// one usage log entry, and at most one attempt succeeds.
func (r *Router) GenerateContent(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	chain, enableFallback, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, ErrNoProvidersAvailable
	}

	var lastErr error
	for _, entry := range chain {
		health := entry.provider.HealthCheck(ctx)
		if !health.Healthy {
			r.logger.Warn("provider unhealthy, skipping",
				"provider", entry.name, "error", health.Error)
			continue
		}

		start := time.Now()
		result, err := entry.provider.GenerateContent(ctx, req)
		if err == nil {
			r.recordUsage(ctx, req, entry, result, nil, time.Since(start))
			return result, nil
		}

		lastErr = err
		r.recordUsage(ctx, req, entry, nil, err, time.Since(start))

		classified := ClassifyError(entry.name, err)
		r.logger.Warn("generation attempt failed",
			"provider", entry.name,
			"model", entry.model,
			"kind", string(classified.Kind),
			"error", err,
		)

		if !enableFallback {
			return nil, err
		}
		if !classified.Retryable {
			// auth_error and unknown never recover by switching providers
			return nil, err
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoProvidersAvailable
}

// StreamContent starts a stream on the first healthy streaming-capable
// provider. There is no mid-stream fallback: once bytes flow, errors
// surface to the consumer. Usage accounting follows the same rule: only a
// failed stream start writes a log entry. A successful start writes none,
// because token counts are unknown until the consumer drains the stream.
func (r *Router) StreamContent(ctx context.Context, req *GenerationRequest) (*Stream, error) {
	chain, _, err := r.snapshot()
	if err != nil {
		return nil, err
	}

	for _, entry := range chain {
		if !entry.provider.Capabilities().Streaming {
			continue
		}

		health := entry.provider.HealthCheck(ctx)
		if !health.Healthy {
			r.logger.Warn("streaming provider unhealthy, skipping",
				"provider", entry.name, "error", health.Error)
			continue
		}

		stream, err := entry.provider.StreamContent(ctx, req)
		if err != nil {
			r.recordUsage(ctx, req, entry, nil, err, 0)
			return nil, err
		}
		return stream, nil
	}

	return nil, ErrStreamingUnsupported
}

// StructuredProvider returns the first provider in the chain with native
// structured output, or nil when none qualifies.
func (r *Router) StructuredProvider() Provider {
	chain, _, err := r.snapshot()
	if err != nil {
		return nil
	}
	for _, entry := range chain {
		if entry.provider.Capabilities().StructuredOutput {
			return entry.provider
		}
	}
	return nil
}

// Provider returns the chain entry for a named provider, or nil.
func (r *Router) Provider(name string) Provider {
	chain, _, err := r.snapshot()
	if err != nil {
		return nil
	}
	for _, entry := range chain {
		if entry.name == name {
			return entry.provider
		}
	}
	return nil
}

// Providers returns the chain's provider names in attempt order.
func (r *Router) Providers() []string {
	chain, _, err := r.snapshot()
	if err != nil {
		return nil
	}
	names := make([]string, len(chain))
	for i, entry := range chain {
		names[i] = entry.name
	}
	return names
}

// Capabilities returns capability flags per provider in the chain.
func (r *Router) Capabilities() map[string]Capabilities {
	chain, _, err := r.snapshot()
	if err != nil {
		return nil
	}
	caps := make(map[string]Capabilities, len(chain))
	for _, entry := range chain {
		caps[entry.name] = entry.provider.Capabilities()
	}
	return caps
}

// GetProviderStatus health-checks every provider in the chain.
func (r *Router) GetProviderStatus(ctx context.Context) map[string]HealthStatus {
	chain, _, err := r.snapshot()
	if err != nil {
		return nil
	}

	statuses := make(map[string]HealthStatus, len(chain))
	for _, entry := range chain {
		statuses[entry.name] = entry.provider.HealthCheck(ctx)
	}
	return statuses
}

// Dispose releases the router's adapters. The router is unusable afterwards.
func (r *Router) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return
	}
	r.chain = nil
	r.disposed = true
	r.factory.Evict(r.userID)
	r.logger.Debug("router disposed")
}

// recordUsage writes one usage entry for an attempt. Failed attempts carry
// zero tokens and the error classification.
func (r *Router) recordUsage(ctx context.Context, req *GenerationRequest, entry routeEntry, result *GenerationResult, genErr error, elapsed time.Duration) {
	usage := &models.UsageLogEntry{
		UserID:    r.userID,
		Provider:  entry.name,
		Model:     entry.model,
		Operation: req.Operation(),
		Success:   genErr == nil,
		LatencyMs: int(elapsed.Milliseconds()),
	}

	if result != nil {
		usage.InputTokens = result.InputTokens
		usage.OutputTokens = result.OutputTokens
		usage.EstimatedCost = result.Cost
		usage.LatencyMs = result.LatencyMs
	}
	if genErr != nil {
		usage.ErrorMessage = genErr.Error()
		usage.ErrorCategory = string(ClassifyError(entry.name, genErr).Kind)
	}

	if err := r.usage.Create(ctx, usage); err != nil {
		// Usage logging must never fail a generation
		r.logger.Error("failed to record usage", "error", err)
	}
}
