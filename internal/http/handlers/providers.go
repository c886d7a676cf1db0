package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blogforge/blogforge-api/internal/llm"
	"github.com/blogforge/blogforge-api/internal/models"
	"github.com/blogforge/blogforge-api/internal/repository"
	"github.com/blogforge/blogforge-api/internal/service"
)

// ProvidersHandler handles LLM provider discovery endpoints.
type ProvidersHandler struct {
	blogSvc *service.BlogService
	catalog repository.ProviderCatalogRepository
}

// NewProvidersHandler creates a new providers handler.
func NewProvidersHandler(blogSvc *service.BlogService, catalog repository.ProviderCatalogRepository) *ProvidersHandler {
	return &ProvidersHandler{blogSvc: blogSvc, catalog: catalog}
}

// ProviderInfo is one provider row in the listing.
type ProviderInfo struct {
	Name         string             `json:"name"`
	DisplayName  string             `json:"display_name"`
	Mode         string             `json:"mode" doc:"native or unified"`
	DefaultModel string             `json:"default_model"`
	Models       []string           `json:"models,omitempty"`
	QualityTier  models.QualityTier `json:"quality_tier"`
	Priority     int                `json:"priority"`
	InChain      bool               `json:"in_chain" doc:"True when this provider is in the caller's active chain"`
}

// ListProvidersOutput is the provider listing response.
type ListProvidersOutput struct {
	Body struct {
		Providers []ProviderInfo `json:"providers"`
	}
}

// ListProviders returns the enabled provider catalog annotated with the
// caller's active chain membership.
func (h *ProvidersHandler) ListProviders(ctx context.Context, input *struct{}) (*ListProvidersOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	defs, err := h.catalog.GetEnabled(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load provider catalog")
	}

	// Chain resolution can fail (e.g. no credentials); the catalog listing
	// still works, just without chain annotations.
	inChain := make(map[string]bool)
	if names, err := h.blogSvc.GetProviders(ctx, userID); err == nil {
		for _, name := range names {
			inChain[name] = true
		}
	}

	out := &ListProvidersOutput{}
	for _, def := range defs {
		out.Body.Providers = append(out.Body.Providers, ProviderInfo{
			Name:         def.Name,
			DisplayName:  def.DisplayName,
			Mode:         string(def.Mode),
			DefaultModel: def.DefaultModel,
			Models:       def.Models,
			QualityTier:  def.QualityTier,
			Priority:     def.Priority,
			InChain:      inChain[def.Name],
		})
	}
	return out, nil
}

// ListModelsInput selects the provider whose models to list.
type ListModelsInput struct {
	Provider string `path:"provider" doc:"Provider whose models to list"`
}

// ListModelsOutput is the model listing response.
type ListModelsOutput struct {
	Body struct {
		Provider string   `json:"provider"`
		Models   []string `json:"models"`
	}
}

// ListModels returns the known model list for a provider.
func (h *ProvidersHandler) ListModels(ctx context.Context, input *ListModelsInput) (*ListModelsOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	names, err := h.blogSvc.ListProviderModels(input.Provider)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	out := &ListModelsOutput{}
	out.Body.Provider = input.Provider
	out.Body.Models = names
	return out, nil
}

// ProviderStatusOutput is the health status response.
type ProviderStatusOutput struct {
	Body struct {
		Statuses map[string]llm.HealthStatus `json:"statuses"`
	}
}

// GetProviderStatus health-checks every provider in the caller's chain.
func (h *ProvidersHandler) GetProviderStatus(ctx context.Context, input *struct{}) (*ProviderStatusOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	statuses, err := h.blogSvc.GetProviderStatus(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to check provider status")
	}

	out := &ProviderStatusOutput{}
	out.Body.Statuses = statuses
	return out, nil
}

// ProviderCapabilitiesOutput is the capabilities response.
type ProviderCapabilitiesOutput struct {
	Body struct {
		Capabilities map[string]llm.Capabilities `json:"capabilities"`
	}
}

// GetProviderCapabilities returns capability flags per provider in the
// caller's chain.
func (h *ProvidersHandler) GetProviderCapabilities(ctx context.Context, input *struct{}) (*ProviderCapabilitiesOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	caps, err := h.blogSvc.GetProviderCapabilities(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load provider capabilities")
	}

	out := &ProviderCapabilitiesOutput{}
	out.Body.Capabilities = caps
	return out, nil
}
