// Package models defines the domain models for the application.
// User identity is external; UserID fields carry the subject claim of the
// bearer token that authenticated the request.
package models

import (
	"time"
)

// QualityTier classifies providers by output quality, used to filter the
// provider catalog against a user's plan.
type QualityTier string

const (
	QualityBasic      QualityTier = "basic"
	QualityPro        QualityTier = "pro"
	QualityEnterprise QualityTier = "enterprise"
)

// Rank returns the ordering of a tier: basic < pro < enterprise.
// Unknown tiers rank lowest.
func (q QualityTier) Rank() int {
	switch q {
	case QualityBasic:
		return 1
	case QualityPro:
		return 2
	case QualityEnterprise:
		return 3
	default:
		return 0
	}
}

// AtMost reports whether q is at or below the given ceiling tier.
func (q QualityTier) AtMost(ceiling QualityTier) bool {
	return q.Rank() <= ceiling.Rank()
}

// ProviderMode selects the adapter implementation for a provider.
type ProviderMode string

const (
	ModeNative  ProviderMode = "native"  // vendor SDK adapter (openai, anthropic)
	ModeUnified ProviderMode = "unified" // OpenAI-compatible HTTP adapter
)

// ProviderDefinition is a catalog row describing an available LLM provider.
type ProviderDefinition struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`         // canonical name: openai, anthropic, groq, ...
	DisplayName        string       `json:"display_name"`
	Mode               ProviderMode `json:"mode"`
	DefaultModel       string       `json:"default_model"`
	Models             []string     `json:"models"` // stored as JSON in the catalog table
	QualityTier        QualityTier  `json:"quality_tier"`
	SupportsStreaming  bool         `json:"supports_streaming"`
	SupportsStructured bool         `json:"supports_structured"`
	IsEnabled          bool         `json:"is_enabled"`
	Priority           int          `json:"priority"` // catalog fallback order, ascending
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// UserProviderPreference holds a user's routing configuration: a primary
// provider plus up to two fallbacks, tried in order.
type UserProviderPreference struct {
	UserID            string      `json:"user_id"`
	PrimaryProvider   string      `json:"primary_provider"`
	PrimaryModel      string      `json:"primary_model,omitempty"` // empty means provider default
	MaxQuality        QualityTier `json:"max_quality"`
	Fallback1Provider string      `json:"fallback1_provider,omitempty"`
	Fallback1Model    string      `json:"fallback1_model,omitempty"`
	Fallback2Provider string      `json:"fallback2_provider,omitempty"`
	Fallback2Model    string      `json:"fallback2_model,omitempty"`
	EnableFallback    bool        `json:"enable_fallback"`
	MaxCostPer1K      *float64    `json:"max_cost_per_1k,omitempty"` // USD ceiling, nil = no limit
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// FallbackOrder returns the user's provider/model pairs in attempt order,
// skipping unset slots.
func (p *UserProviderPreference) FallbackOrder() []ProviderModel {
	var order []ProviderModel
	if p.PrimaryProvider != "" {
		order = append(order, ProviderModel{Provider: p.PrimaryProvider, Model: p.PrimaryModel})
	}
	if p.Fallback1Provider != "" {
		order = append(order, ProviderModel{Provider: p.Fallback1Provider, Model: p.Fallback1Model})
	}
	if p.Fallback2Provider != "" {
		order = append(order, ProviderModel{Provider: p.Fallback2Provider, Model: p.Fallback2Model})
	}
	return order
}

// ProviderModel is a provider name with an optional model override.
type ProviderModel struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// UserProviderKey is a user-supplied API key for a provider, encrypted at rest.
type UserProviderKey struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Provider        string    `json:"provider"`
	APIKeyEncrypted string    `json:"-"`
	KeyPrefix       string    `json:"key_prefix"` // first 8 chars for display
	BaseURL         string    `json:"base_url,omitempty"`
	IsEnabled       bool      `json:"is_enabled"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UsageLogEntry records a single generation attempt, successful or not.
// Exactly one entry is written per provider attempt.
type UsageLogEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	Operation     string    `json:"operation"` // blog, structured_blog, stream, seo, validate
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	EstimatedCost float64   `json:"estimated_cost"`
	Success       bool      `json:"success"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	ErrorCategory string    `json:"error_category,omitempty"`
	LatencyMs     int       `json:"latency_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// UsageSummary aggregates usage over a period for the analytics surface.
type UsageSummary struct {
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	TotalRequests int       `json:"total_requests"`
	SuccessCount  int       `json:"success_count"`
	InputTokens   int       `json:"input_tokens"`
	OutputTokens  int       `json:"output_tokens"`
	TotalCost     float64   `json:"total_cost"`
	SuccessRate   float64   `json:"success_rate"`
}

// ProviderUsage is a per-provider breakdown row in the usage summary.
type ProviderUsage struct {
	Provider     string  `json:"provider"`
	Requests     int     `json:"requests"`
	SuccessCount int     `json:"success_count"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
}
