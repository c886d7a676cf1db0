// Package config handles application configuration.
package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/hkdf"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database
	DatabaseURL string

	// Authentication
	JWTSecret     string
	EncryptionKey []byte // 32-byte key for AES-256-GCM encryption

	// Service LLM keys, used when a user has no key of their own.
	// Keys are injected into adapter constructors explicitly; the process
	// environment is never mutated for vendor SDK initialization.
	ServiceOpenAIKey     string
	ServiceAnthropicKey  string
	ServiceGroqKey       string
	ServiceMistralKey    string
	ServiceCohereKey     string
	ServiceOpenRouterKey string

	// LLM call tuning
	LLMTimeout     time.Duration // per-request timeout for vendor calls
	LLMMaxRetries  int           // per-provider retry attempts for retryable errors
	LLMBaseURLs    map[string]string

	// DataForSEO keyword research
	DataForSEOLogin    string
	DataForSEOPassword string

	// CORS
	CORSOrigins []string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Object Storage (S3-compatible) for pricing/config overrides
	StorageEnabled   bool
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageRegion    string
	PricingConfigKey string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:blogforge.db?_journal=WAL&_timeout=5000"),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		ServiceOpenAIKey:     getEnv("SERVICE_OPENAI_KEY", ""),
		ServiceAnthropicKey:  getEnv("SERVICE_ANTHROPIC_KEY", ""),
		ServiceGroqKey:       getEnv("SERVICE_GROQ_KEY", ""),
		ServiceMistralKey:    getEnv("SERVICE_MISTRAL_KEY", ""),
		ServiceCohereKey:     getEnv("SERVICE_COHERE_KEY", ""),
		ServiceOpenRouterKey: getEnv("SERVICE_OPENROUTER_KEY", ""),

		LLMTimeout:    getEnvDuration("LLM_TIMEOUT", 120*time.Second),
		LLMMaxRetries: getEnvInt("LLM_MAX_RETRIES", 3),

		DataForSEOLogin:    getEnv("DATAFORSEO_LOGIN", ""),
		DataForSEOPassword: getEnv("DATAFORSEO_PASSWORD", ""),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnvWithFallback("BUCKET_NAME", "STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),
		PricingConfigKey: getEnv("PRICING_CONFIG_KEY", "config/model_pricing.json"),
	}

	// Optional per-provider base URL overrides, e.g. LLM_BASE_URL_OPENAI for proxies.
	cfg.LLMBaseURLs = map[string]string{}
	for _, provider := range []string{"openai", "anthropic", "groq", "mistral", "cohere", "openrouter"} {
		if v := os.Getenv("LLM_BASE_URL_" + strings.ToUpper(provider)); v != "" {
			cfg.LLMBaseURLs[provider] = v
		}
	}

	// Enable storage if bucket is configured
	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""

	// Generate a random JWT secret when not provided; tokens won't survive a
	// restart but local development keeps working.
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = generateRandomSecret(64)
	}

	// Set up encryption key (derive from JWT secret if not explicitly set)
	encKeyStr := getEnv("ENCRYPTION_KEY", "")
	if encKeyStr != "" {
		decoded, err := base64.StdEncoding.DecodeString(encKeyStr)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be a base64-encoded 32-byte key")
		}
		cfg.EncryptionKey = decoded
	} else {
		cfg.EncryptionKey = deriveEncryptionKey(cfg.JWTSecret)
	}

	return cfg, nil
}

// ServiceKey returns the service-level API key for a provider, or "" if unset.
func (c *Config) ServiceKey(provider string) string {
	switch provider {
	case "openai":
		return c.ServiceOpenAIKey
	case "anthropic":
		return c.ServiceAnthropicKey
	case "groq":
		return c.ServiceGroqKey
	case "mistral":
		return c.ServiceMistralKey
	case "cohere":
		return c.ServiceCohereKey
	case "openrouter":
		return c.ServiceOpenRouterKey
	default:
		return ""
	}
}

// BaseURLOverride returns a configured base URL override for a provider, or "".
func (c *Config) BaseURLOverride(provider string) string {
	return c.LLMBaseURLs[provider]
}

// KeywordResearchEnabled returns true if DataForSEO credentials are configured.
func (c *Config) KeywordResearchEnabled() bool {
	return c.DataForSEOLogin != "" && c.DataForSEOPassword != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}

func generateRandomSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback (should never happen)
		return "dev-secret-change-me-" + base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	}
	return base64.URLEncoding.EncodeToString(bytes)
}

// deriveEncryptionKey creates a 32-byte AES-256 key from a secret string using HKDF.
// HKDF is appropriate for deriving keys from high-entropy secrets like JWT secrets.
func deriveEncryptionKey(secret string) []byte {
	salt := []byte("blogforge-api-encryption-key-v1")
	info := []byte("aes-256-gcm-encryption")

	hkdfReader := hkdf.New(sha256.New, []byte(secret), salt, info)

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		panic("hkdf: failed to derive key: " + err.Error())
	}

	return key
}
