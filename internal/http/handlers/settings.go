package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/blogforge/blogforge-api/internal/models"
	"github.com/blogforge/blogforge-api/internal/service"
)

// SettingsHandler handles user LLM settings endpoints.
type SettingsHandler struct {
	prefSvc *service.PreferenceService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(prefSvc *service.PreferenceService) *SettingsHandler {
	return &SettingsHandler{prefSvc: prefSvc}
}

// GetPreferenceOutput is the routing preference response.
type GetPreferenceOutput struct {
	Body struct {
		Preference *models.UserProviderPreference `json:"preference" doc:"Null when the user has no explicit preference"`
	}
}

// GetPreference returns the caller's routing preference.
func (h *SettingsHandler) GetPreference(ctx context.Context, input *struct{}) (*GetPreferenceOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	pref, err := h.prefSvc.GetPreference(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load preference")
	}

	out := &GetPreferenceOutput{}
	out.Body.Preference = pref
	return out, nil
}

// PutPreferenceInput is the routing preference update request.
type PutPreferenceInput struct {
	Body struct {
		PrimaryProvider   string             `json:"primary_provider" minLength:"1" doc:"Provider tried first"`
		PrimaryModel      string             `json:"primary_model,omitempty" doc:"Model override, empty means provider default"`
		MaxQuality        models.QualityTier `json:"max_quality,omitempty" enum:"basic,pro,enterprise" doc:"Quality ceiling for catalog fallbacks"`
		Fallback1Provider string             `json:"fallback1_provider,omitempty"`
		Fallback1Model    string             `json:"fallback1_model,omitempty"`
		Fallback2Provider string             `json:"fallback2_provider,omitempty"`
		Fallback2Model    string             `json:"fallback2_model,omitempty"`
		EnableFallback    bool               `json:"enable_fallback" doc:"Try the next provider on retryable failures"`
		MaxCostPer1K      *float64           `json:"max_cost_per_1k,omitempty" minimum:"0" doc:"USD ceiling per 1K+1K tokens, null means no limit"`
	}
}

// PutPreferenceOutput is the routing preference update response.
type PutPreferenceOutput struct {
	Body struct {
		Preference *models.UserProviderPreference `json:"preference"`
	}
}

// PutPreference stores the caller's routing preference.
func (h *SettingsHandler) PutPreference(ctx context.Context, input *PutPreferenceInput) (*PutPreferenceOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	pref := &models.UserProviderPreference{
		UserID:            userID,
		PrimaryProvider:   input.Body.PrimaryProvider,
		PrimaryModel:      input.Body.PrimaryModel,
		MaxQuality:        input.Body.MaxQuality,
		Fallback1Provider: input.Body.Fallback1Provider,
		Fallback1Model:    input.Body.Fallback1Model,
		Fallback2Provider: input.Body.Fallback2Provider,
		Fallback2Model:    input.Body.Fallback2Model,
		EnableFallback:    input.Body.EnableFallback,
		MaxCostPer1K:      input.Body.MaxCostPer1K,
	}

	if err := h.prefSvc.UpsertPreference(ctx, pref); err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	out := &PutPreferenceOutput{}
	out.Body.Preference = pref
	return out, nil
}

// DeletePreferenceOutput is the preference deletion response.
type DeletePreferenceOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

// DeletePreference removes the caller's routing preference.
func (h *SettingsHandler) DeletePreference(ctx context.Context, input *struct{}) (*DeletePreferenceOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.prefSvc.DeletePreference(ctx, userID); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete preference")
	}

	out := &DeletePreferenceOutput{}
	out.Body.Deleted = true
	return out, nil
}

// ProviderKeyInfo is one stored key row. Key material is never returned.
type ProviderKeyInfo struct {
	Provider  string `json:"provider"`
	KeyPrefix string `json:"key_prefix" doc:"First characters of the key for display"`
	BaseURL   string `json:"base_url,omitempty"`
	IsEnabled bool   `json:"is_enabled"`
}

// ListKeysOutput is the stored key listing response.
type ListKeysOutput struct {
	Body struct {
		Keys []ProviderKeyInfo `json:"keys"`
	}
}

// ListKeys returns the caller's stored provider keys.
func (h *SettingsHandler) ListKeys(ctx context.Context, input *struct{}) (*ListKeysOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	keys, err := h.prefSvc.ListKeys(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list keys")
	}

	out := &ListKeysOutput{}
	for _, key := range keys {
		out.Body.Keys = append(out.Body.Keys, ProviderKeyInfo{
			Provider:  key.Provider,
			KeyPrefix: key.KeyPrefix,
			BaseURL:   key.BaseURL,
			IsEnabled: key.IsEnabled,
		})
	}
	return out, nil
}

// UpsertKeyInput is the key upsert request.
type UpsertKeyInput struct {
	Body struct {
		Provider string `json:"provider" minLength:"1" doc:"Provider the key belongs to"`
		APIKey   string `json:"api_key" minLength:"1" doc:"Plaintext key, encrypted at rest"`
		BaseURL  string `json:"base_url,omitempty" format:"uri" doc:"Optional endpoint override"`
		Validate bool   `json:"validate,omitempty" doc:"Probe the key against the provider before storing"`
	}
}

// UpsertKeyOutput is the key upsert response.
type UpsertKeyOutput struct {
	Body struct {
		Key       ProviderKeyInfo `json:"key"`
		Validated bool            `json:"validated" doc:"True when a validation probe ran and passed"`
	}
}

// UpsertKey stores a provider API key for the caller.
func (h *SettingsHandler) UpsertKey(ctx context.Context, input *UpsertKeyInput) (*UpsertKeyOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	validated := false
	if input.Body.Validate {
		// Only a definitive credential rejection fails validation; a
		// provider outage presumes the key valid.
		ok, err := h.prefSvc.ValidateKey(ctx, input.Body.Provider, input.Body.APIKey, input.Body.BaseURL)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		if !ok {
			return nil, huma.Error422UnprocessableEntity("provider rejected the API key")
		}
		validated = true
	}

	key, err := h.prefSvc.UpsertKey(ctx, userID, input.Body.Provider, input.Body.APIKey, input.Body.BaseURL)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}

	out := &UpsertKeyOutput{}
	out.Body.Key = ProviderKeyInfo{
		Provider:  key.Provider,
		KeyPrefix: key.KeyPrefix,
		BaseURL:   key.BaseURL,
		IsEnabled: key.IsEnabled,
	}
	out.Body.Validated = validated
	return out, nil
}

// DeleteKeyInput is the key deletion request.
type DeleteKeyInput struct {
	Provider string `path:"provider" doc:"Provider whose key to delete"`
}

// DeleteKeyOutput is the key deletion response.
type DeleteKeyOutput struct {
	Body struct {
		Deleted bool `json:"deleted"`
	}
}

// DeleteKey removes the caller's key for a provider.
func (h *SettingsHandler) DeleteKey(ctx context.Context, input *DeleteKeyInput) (*DeleteKeyOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.prefSvc.DeleteKey(ctx, userID, input.Provider); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete key")
	}

	out := &DeleteKeyOutput{}
	out.Body.Deleted = true
	return out, nil
}
