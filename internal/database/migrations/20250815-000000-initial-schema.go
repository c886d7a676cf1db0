package migrations

func init() {
	Register(Migration{
		Timestamp:   "20250815-000000",
		Description: "Initial schema: provider catalog, preferences, keys, usage log",
		Up: []string{
			// Provider catalog - which LLM providers the platform offers
			`CREATE TABLE IF NOT EXISTS llm_providers (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				display_name TEXT NOT NULL,
				mode TEXT NOT NULL DEFAULT 'unified',
				default_model TEXT NOT NULL,
				models_json TEXT NOT NULL DEFAULT '[]',
				quality_tier TEXT NOT NULL DEFAULT 'basic',
				supports_streaming INTEGER NOT NULL DEFAULT 1,
				supports_structured INTEGER NOT NULL DEFAULT 0,
				is_enabled INTEGER NOT NULL DEFAULT 1,
				priority INTEGER NOT NULL DEFAULT 100,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_llm_providers_enabled ON llm_providers(is_enabled, priority)`,

			// Per-user routing preference: primary plus up to two fallbacks
			`CREATE TABLE IF NOT EXISTS user_llm_preferences (
				user_id TEXT PRIMARY KEY,
				primary_provider TEXT NOT NULL,
				primary_model TEXT,
				max_quality TEXT NOT NULL DEFAULT 'pro',
				fallback1_provider TEXT,
				fallback1_model TEXT,
				fallback2_provider TEXT,
				fallback2_model TEXT,
				enable_fallback INTEGER NOT NULL DEFAULT 1,
				max_cost_per_1k REAL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,

			// User-supplied provider API keys, encrypted at rest
			`CREATE TABLE IF NOT EXISTS user_provider_keys (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				provider TEXT NOT NULL,
				api_key_encrypted TEXT,
				key_prefix TEXT,
				base_url TEXT,
				is_enabled INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE(user_id, provider)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_user_provider_keys_user_id ON user_provider_keys(user_id)`,

			// Usage log: one row per generation attempt (success or failure)
			`CREATE TABLE IF NOT EXISTS llm_usage_log (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				provider TEXT NOT NULL,
				model TEXT NOT NULL,
				operation TEXT NOT NULL,
				input_tokens INTEGER NOT NULL DEFAULT 0,
				output_tokens INTEGER NOT NULL DEFAULT 0,
				estimated_cost REAL NOT NULL DEFAULT 0,
				success INTEGER NOT NULL,
				error_message TEXT,
				error_category TEXT,
				latency_ms INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_llm_usage_log_user_created ON llm_usage_log(user_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_llm_usage_log_provider ON llm_usage_log(user_id, provider)`,
		},
	})
}
