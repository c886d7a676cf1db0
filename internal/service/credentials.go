package service

import (
	"context"
	"fmt"

	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/crypto"
	"github.com/blogforge/blogforge-api/internal/repository"
)

// CredentialResolver resolves the API key and base URL for a user/provider
// pair: the user's own stored key wins, the service-level key is the
// fallback. Implements llm.CredentialSource.
type CredentialResolver struct {
	cfg       *config.Config
	keys      repository.ProviderKeyRepository
	encryptor *crypto.Encryptor
}

// NewCredentialResolver creates a credential resolver.
func NewCredentialResolver(cfg *config.Config, keys repository.ProviderKeyRepository, encryptor *crypto.Encryptor) *CredentialResolver {
	return &CredentialResolver{cfg: cfg, keys: keys, encryptor: encryptor}
}

// Resolve returns the API key and optional base URL override for a provider.
// An empty key with nil error means no credential is available.
func (r *CredentialResolver) Resolve(ctx context.Context, userID, provider string) (string, string, error) {
	row, err := r.keys.GetByUserAndProvider(ctx, userID, provider)
	if err != nil {
		return "", "", fmt.Errorf("failed to load provider key: %w", err)
	}

	if row != nil && row.IsEnabled && row.APIKeyEncrypted != "" {
		apiKey, err := r.encryptor.Decrypt(row.APIKeyEncrypted)
		if err != nil {
			return "", "", fmt.Errorf("failed to decrypt provider key: %w", err)
		}

		baseURL := row.BaseURL
		if baseURL == "" {
			baseURL = r.cfg.BaseURLOverride(provider)
		}
		return apiKey, baseURL, nil
	}

	// Service-level key; base URL override still applies (proxies, tests)
	return r.cfg.ServiceKey(provider), r.cfg.BaseURLOverride(provider), nil
}
