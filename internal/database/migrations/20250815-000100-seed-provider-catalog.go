package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250815-000100",
		Description: "Seed LLM provider catalog",
		Up: []string{
			`INSERT OR IGNORE INTO llm_providers
				(id, name, display_name, mode, default_model, models_json, quality_tier, supports_streaming, supports_structured, is_enabled, priority, created_at, updated_at)
			VALUES
				('prov_openai', 'openai', 'OpenAI', 'native', 'gpt-4o-mini',
					'["gpt-4o","gpt-4o-mini","gpt-4-turbo","gpt-3.5-turbo"]',
					'pro', 1, 1, 1, 10, datetime('now'), datetime('now')),
				('prov_anthropic', 'anthropic', 'Anthropic', 'native', 'claude-3-5-sonnet-20241022',
					'["claude-3-5-sonnet-20241022","claude-3-5-haiku-20241022","claude-3-opus-20240229"]',
					'enterprise', 1, 0, 1, 20, datetime('now'), datetime('now')),
				('prov_groq', 'groq', 'Groq', 'unified', 'llama-3.1-70b-versatile',
					'["llama-3.1-70b-versatile","llama-3.1-8b-instant","mixtral-8x7b-32768"]',
					'basic', 1, 0, 1, 30, datetime('now'), datetime('now')),
				('prov_mistral', 'mistral', 'Mistral', 'unified', 'mistral-large-latest',
					'["mistral-large-latest","mistral-medium-latest","mistral-small-latest"]',
					'pro', 1, 0, 1, 40, datetime('now'), datetime('now')),
				('prov_cohere', 'cohere', 'Cohere', 'unified', 'command-r-plus',
					'["command-r-plus","command-r","command"]',
					'pro', 1, 0, 1, 50, datetime('now'), datetime('now')),
				('prov_openrouter', 'openrouter', 'OpenRouter', 'unified', 'openai/gpt-4o-mini',
					'["openai/gpt-4o-mini","anthropic/claude-3.5-sonnet","meta-llama/llama-3.1-70b-instruct"]',
					'basic', 1, 0, 0, 60, datetime('now'), datetime('now'))`,
		},
	})
}
