// Package llm provides the LLM provider routing layer: typed requests and
// results, provider adapters, a caching factory and a per-user fallback
// router.
package llm

// Provider names supported by the routing layer.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGroq       = "groq"
	ProviderMistral    = "mistral"
	ProviderCohere     = "cohere"
	ProviderOpenRouter = "openrouter"
)

// Request operation types, recorded in the usage log.
const (
	OpBlog           = "blog"
	OpStructuredBlog = "structured_blog"
	OpStream         = "stream"
	OpSEO            = "seo"
	OpValidate       = "validate"
)

// GenerationRequest describes a single content generation call.
// Treat values as immutable once constructed; adapters must not mutate them.
type GenerationRequest struct {
	Prompt       string            `json:"prompt"`
	SystemPrompt string            `json:"system_prompt,omitempty"`
	MaxTokens    int               `json:"max_tokens,omitempty"`   // 0 means adapter default
	Temperature  float64           `json:"temperature,omitempty"`
	TopP         float64           `json:"top_p,omitempty"`
	UserID       string            `json:"user_id"`
	RequestType  string            `json:"request_type,omitempty"` // operation constant, defaults to blog
	Metadata     map[string]string `json:"metadata,omitempty"`     // may carry provider_id / model_id overrides
}

// Metadata keys naming an explicit provider and model for a request. A
// request carrying MetaProviderID goes to that provider directly, with no
// fallback.
const (
	MetaProviderID = "provider_id"
	MetaModelID    = "model_id"
)

// Operation returns the request type, defaulting to blog generation.
func (r *GenerationRequest) Operation() string {
	if r.RequestType == "" {
		return OpBlog
	}
	return r.RequestType
}

// GenerationResult is the outcome of a successful generation call.
type GenerationResult struct {
	Content      string  `json:"content"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`       // estimated USD
	LatencyMs    int     `json:"latency_ms"`
	Model        string  `json:"model"`
	Provider     string  `json:"provider"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// TotalTokens returns input plus output tokens.
func (r *GenerationResult) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// BlogSection is one H2-level section of a structured blog post.
type BlogSection struct {
	Heading  string   `json:"heading"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords,omitempty"`
}

// StructuredBlog is a blog post decomposed into SEO-friendly parts.
type StructuredBlog struct {
	Title           string        `json:"title"`
	MetaDescription string        `json:"meta_description"` // at most 160 chars
	Sections        []BlogSection `json:"sections"`
	Tags            []string      `json:"tags,omitempty"`
	SEOKeywords     []string      `json:"seo_keywords,omitempty"`
}

// Capabilities describes what a provider adapter supports.
type Capabilities struct {
	Streaming        bool `json:"streaming"`
	StructuredOutput bool `json:"structured_output"`
}

// HealthStatus is the result of a provider health probe.
type HealthStatus struct {
	Healthy   bool   `json:"healthy"`
	LatencyMs int    `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}
