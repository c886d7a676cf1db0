package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blogforge/blogforge-api/internal/llm"
	"github.com/blogforge/blogforge-api/internal/models"
	"github.com/blogforge/blogforge-api/internal/repository"
)

// BlogService generates blog content through the per-user provider router.
// Routers are cached process-wide by user id; ClearRouterCache must be called
// whenever a user's keys or preferences change.
type BlogService struct {
	factory     *llm.Factory
	repos       *repository.Repositories
	credentials llm.CredentialSource
	logger      *slog.Logger

	mu      sync.Mutex
	routers map[string]*llm.Router
}

// NewBlogService creates a blog generation service.
func NewBlogService(factory *llm.Factory, repos *repository.Repositories, credentials llm.CredentialSource, logger *slog.Logger) *BlogService {
	return &BlogService{
		factory:     factory,
		repos:       repos,
		credentials: credentials,
		logger:      logger,
		routers:     make(map[string]*llm.Router),
	}
}

// getRouter returns the cached router for a user, building and initializing
// one on first use.
func (s *BlogService) getRouter(ctx context.Context, userID string) (*llm.Router, error) {
	s.mu.Lock()
	if router, ok := s.routers[userID]; ok {
		s.mu.Unlock()
		return router, nil
	}
	s.mu.Unlock()

	router := llm.NewRouter(llm.RouterConfig{
		UserID:      userID,
		Factory:     s.factory,
		Preferences: s.repos.Preference,
		Catalog:     s.repos.ProviderCatalog,
		Usage:       s.repos.UsageLog,
		Credentials: s.credentials,
		Logger:      s.logger,
	})
	if err := router.Initialize(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have built one while we initialized
	if existing, ok := s.routers[userID]; ok {
		router.Dispose()
		return existing, nil
	}
	s.routers[userID] = router
	return router, nil
}

// ClearRouterCache disposes and removes a user's cached router. Call after
// any change to the user's keys or routing preference.
func (s *BlogService) ClearRouterCache(userID string) {
	s.mu.Lock()
	router, ok := s.routers[userID]
	delete(s.routers, userID)
	s.mu.Unlock()

	if ok {
		router.Dispose()
	}
}

// applyBlogDefaults fills in unset generation parameters.
func applyBlogDefaults(req *llm.GenerationRequest) {
	if req.SystemPrompt == "" {
		req.SystemPrompt = defaultBlogSystemPrompt
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 2000
	}
	if req.Temperature == 0 {
		req.Temperature = 0.7
	}
	if req.TopP == 0 {
		req.TopP = 1.0
	}
}

// requestedProvider builds an adapter for a provider the request names
// explicitly in its metadata. Returns nil when the request names none. An
// explicit request bypasses the fallback chain; the named provider must be
// in the catalog and have a resolvable credential.
func (s *BlogService) requestedProvider(ctx context.Context, userID string, req *llm.GenerationRequest) (llm.Provider, error) {
	name := req.Metadata[llm.MetaProviderID]
	if name == "" {
		return nil, nil
	}

	def, err := s.repos.ProviderCatalog.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if def == nil || !def.IsEnabled {
		return nil, fmt.Errorf("requested provider %q is not available", name)
	}

	model := req.Metadata[llm.MetaModelID]
	if model == "" {
		model = def.DefaultModel
	}

	apiKey, baseURL, err := s.credentials.Resolve(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no credential for requested provider %q", name)
	}

	return s.factory.CreateProvider(llm.ProviderConfig{
		Provider: name,
		Model:    model,
		APIKey:   apiKey,
		BaseURL:  baseURL,
		Scope:    userID,
	})
}

// GenerateBlogContent generates a blog post for a user through the fallback
// chain. A provider named in the request metadata is used directly instead,
// with no fallback.
func (s *BlogService) GenerateBlogContent(ctx context.Context, userID string, req *llm.GenerationRequest) (*llm.GenerationResult, error) {
	req.UserID = userID
	req.RequestType = llm.OpBlog
	applyBlogDefaults(req)

	if provider, err := s.requestedProvider(ctx, userID, req); err != nil {
		return nil, err
	} else if provider != nil {
		start := time.Now()
		result, err := provider.GenerateContent(ctx, req)
		s.recordDirectAttempt(ctx, userID, provider, req, result, err, time.Since(start))
		return result, err
	}

	router, err := s.getRouter(ctx, userID)
	if err != nil {
		return nil, err
	}
	return router.GenerateContent(ctx, req)
}

// GenerateStructuredBlog produces a structured blog post. The direct attempt
// goes to the provider named in the request metadata, or the first provider
// in the chain with native structured output; when neither is available or
// the native call fails, it falls back to plain generation plus markdown
// parsing.
func (s *BlogService) GenerateStructuredBlog(ctx context.Context, userID string, req *llm.GenerationRequest) (*llm.StructuredBlog, *llm.GenerationResult, error) {
	router, err := s.getRouter(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	req.UserID = userID
	req.RequestType = llm.OpStructuredBlog
	if req.SystemPrompt == "" {
		req.SystemPrompt = defaultStructuredBlogSystemPrompt
	}
	applyBlogDefaults(req)

	provider, err := s.requestedProvider(ctx, userID, req)
	if err != nil {
		return nil, nil, err
	}
	if provider == nil {
		provider = router.StructuredProvider()
	}

	if provider != nil && provider.Capabilities().StructuredOutput {
		start := time.Now()
		blog, result, err := provider.GenerateStructuredBlog(ctx, req)
		s.recordDirectAttempt(ctx, userID, provider, req, result, err, time.Since(start))
		if err == nil {
			return blog, result, nil
		}
		s.logger.Warn("structured generation failed, falling back to parsing",
			"user_id", userID, "provider", provider.Name(), "error", err)
	}

	// Plain generation, then best-effort parsing. An explicitly requested
	// provider serves the plain attempt too; otherwise it walks the chain.
	plainReq := *req
	plainReq.SystemPrompt = defaultBlogSystemPrompt
	var result *llm.GenerationResult
	if provider != nil && req.Metadata[llm.MetaProviderID] != "" {
		start := time.Now()
		result, err = provider.GenerateContent(ctx, &plainReq)
		s.recordDirectAttempt(ctx, userID, provider, &plainReq, result, err, time.Since(start))
	} else {
		result, err = router.GenerateContent(ctx, &plainReq)
	}
	if err != nil {
		return nil, nil, err
	}
	return ParseUnstructuredBlog(result.Content), result, nil
}

// StreamBlogGeneration starts a streaming generation. A provider named in
// the request metadata streams directly; otherwise the first streaming-capable
// provider in the chain serves it. Fails immediately when none is available.
func (s *BlogService) StreamBlogGeneration(ctx context.Context, userID string, req *llm.GenerationRequest) (*llm.Stream, error) {
	req.UserID = userID
	req.RequestType = llm.OpStream
	applyBlogDefaults(req)

	if provider, err := s.requestedProvider(ctx, userID, req); err != nil {
		return nil, err
	} else if provider != nil {
		if !provider.Capabilities().Streaming {
			return nil, llm.ErrStreamingUnsupported
		}
		return provider.StreamContent(ctx, req)
	}

	router, err := s.getRouter(ctx, userID)
	if err != nil {
		return nil, err
	}
	return router.StreamContent(ctx, req)
}

// GenerateSeoOptimization analyzes existing content and suggests SEO
// improvements. Lower temperature and token budget than blog generation.
func (s *BlogService) GenerateSeoOptimization(ctx context.Context, userID string, content string) (*llm.GenerationResult, error) {
	router, err := s.getRouter(ctx, userID)
	if err != nil {
		return nil, err
	}

	req := &llm.GenerationRequest{
		Prompt:       content,
		SystemPrompt: defaultSeoSystemPrompt,
		MaxTokens:    1000,
		Temperature:  0.3,
		TopP:         1.0,
		UserID:       userID,
		RequestType:  llm.OpSEO,
	}

	return router.GenerateContent(ctx, req)
}

// GetProviders returns the user's provider chain in attempt order.
func (s *BlogService) GetProviders(ctx context.Context, userID string) ([]string, error) {
	router, err := s.getRouter(ctx, userID)
	if err != nil {
		return nil, err
	}
	return router.Providers(), nil
}

// GetProviderCapabilities returns capability flags per provider in the
// user's chain.
func (s *BlogService) GetProviderCapabilities(ctx context.Context, userID string) (map[string]llm.Capabilities, error) {
	router, err := s.getRouter(ctx, userID)
	if err != nil {
		return nil, err
	}
	return router.Capabilities(), nil
}

// ListProviderModels returns the known model list for a provider.
func (s *BlogService) ListProviderModels(provider string) ([]string, error) {
	return s.factory.ListProviderModels(provider)
}

// GetProviderStatus health-checks every provider in the user's chain.
func (s *BlogService) GetProviderStatus(ctx context.Context, userID string) (map[string]llm.HealthStatus, error) {
	router, err := s.getRouter(ctx, userID)
	if err != nil {
		return nil, err
	}
	return router.GetProviderStatus(ctx), nil
}

// recordDirectAttempt writes the usage entry for a call that goes to a
// single provider directly, bypassing the router's per-attempt accounting.
func (s *BlogService) recordDirectAttempt(ctx context.Context, userID string, provider llm.Provider, req *llm.GenerationRequest, result *llm.GenerationResult, genErr error, elapsed time.Duration) {
	entry := &models.UsageLogEntry{
		UserID:    userID,
		Provider:  provider.Name(),
		Model:     provider.Model(),
		Operation: req.Operation(),
		Success:   genErr == nil,
		LatencyMs: int(elapsed.Milliseconds()),
	}
	if result != nil {
		entry.InputTokens = result.InputTokens
		entry.OutputTokens = result.OutputTokens
		entry.EstimatedCost = result.Cost
		entry.LatencyMs = result.LatencyMs
	}
	if genErr != nil {
		entry.ErrorMessage = genErr.Error()
		entry.ErrorCategory = string(llm.ClassifyError(provider.Name(), genErr).Kind)
	}

	if err := s.repos.UsageLog.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record usage", "error", err)
	}
}
