package llm

import (
	"context"

	"github.com/blogforge/blogforge-api/internal/models"
)

// Provider is the adapter interface every LLM vendor integration implements.
type Provider interface {
	// Name returns the canonical provider name (openai, anthropic, ...).
	Name() string

	// Model returns the model this adapter instance is bound to.
	Model() string

	// GenerateContent performs a single completion call.
	GenerateContent(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)

	// GenerateStructuredBlog produces a StructuredBlog using the provider's
	// native structured output. Only adapters whose Capabilities report
	// StructuredOutput implement this; others return a classified error.
	GenerateStructuredBlog(ctx context.Context, req *GenerationRequest) (*StructuredBlog, *GenerationResult, error)

	// StreamContent starts a streaming completion. The returned Stream ends
	// with a terminal {"", done} chunk; Close abandons the request.
	StreamContent(ctx context.Context, req *GenerationRequest) (*Stream, error)

	// ValidateAPIKey probes the credential with a minimal request. Only a
	// definitive credential rejection yields false; any other failure
	// (rate limit, outage, network) presumes the key valid so a provider
	// having a bad minute cannot reject a good credential.
	ValidateAPIKey(ctx context.Context) (bool, error)

	// HealthCheck probes provider availability. It never returns an error;
	// failures are reported in the status.
	HealthCheck(ctx context.Context) HealthStatus

	// EstimateCost returns the estimated USD cost for a token count.
	EstimateCost(inputTokens, outputTokens int) float64

	// Capabilities reports what this adapter supports.
	Capabilities() Capabilities
}

// Collaborator interfaces the Router depends on. Declared here so the
// router does not import the repository package directly.

// PreferenceSource loads a user's routing preference.
type PreferenceSource interface {
	Get(ctx context.Context, userID string) (*models.UserProviderPreference, error)
}

// CatalogSource loads enabled provider definitions in priority order.
type CatalogSource interface {
	GetEnabled(ctx context.Context) ([]*models.ProviderDefinition, error)
}

// UsageRecorder records one entry per generation attempt.
type UsageRecorder interface {
	Create(ctx context.Context, entry *models.UsageLogEntry) error
}

// CredentialSource resolves the API key and optional base URL override for
// a user/provider pair. Returns empty key when no credential is available.
type CredentialSource interface {
	Resolve(ctx context.Context, userID, provider string) (apiKey, baseURL string, err error)
}
