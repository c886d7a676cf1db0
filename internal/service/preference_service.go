package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blogforge/blogforge-api/internal/crypto"
	"github.com/blogforge/blogforge-api/internal/llm"
	"github.com/blogforge/blogforge-api/internal/models"
	"github.com/blogforge/blogforge-api/internal/repository"
)

// PreferenceService manages user routing preferences and provider API keys.
// Any mutation invalidates the user's cached router and adapter instances.
type PreferenceService struct {
	repos      *repository.Repositories
	encryptor  *crypto.Encryptor
	factory    *llm.Factory
	invalidate func(userID string)
	logger     *slog.Logger
}

// NewPreferenceService creates a preference service. invalidate is called
// after every mutation to drop the user's cached router.
func NewPreferenceService(repos *repository.Repositories, encryptor *crypto.Encryptor, factory *llm.Factory, invalidate func(userID string), logger *slog.Logger) *PreferenceService {
	return &PreferenceService{
		repos:      repos,
		encryptor:  encryptor,
		factory:    factory,
		invalidate: invalidate,
		logger:     logger,
	}
}

// GetPreference returns a user's routing preference, or nil when unset.
func (s *PreferenceService) GetPreference(ctx context.Context, userID string) (*models.UserProviderPreference, error) {
	return s.repos.Preference.Get(ctx, userID)
}

// UpsertPreference stores a user's routing preference after validating the
// referenced providers against the catalog.
func (s *PreferenceService) UpsertPreference(ctx context.Context, pref *models.UserProviderPreference) error {
	if pref.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if pref.PrimaryProvider == "" {
		return fmt.Errorf("primary provider is required")
	}
	if pref.MaxQuality != "" && pref.MaxQuality.Rank() == 0 {
		return fmt.Errorf("unknown quality tier %q", pref.MaxQuality)
	}

	for _, pm := range pref.FallbackOrder() {
		def, err := s.repos.ProviderCatalog.GetByName(ctx, pm.Provider)
		if err != nil {
			return fmt.Errorf("failed to check provider %s: %w", pm.Provider, err)
		}
		if def == nil {
			return fmt.Errorf("unknown provider %q", pm.Provider)
		}
	}

	if err := s.repos.Preference.Upsert(ctx, pref); err != nil {
		return err
	}

	s.evictUser(pref.UserID)
	s.logger.Info("routing preference updated", "user_id", pref.UserID, "primary", pref.PrimaryProvider)
	return nil
}

// DeletePreference removes a user's routing preference, reverting them to
// catalog-order routing.
func (s *PreferenceService) DeletePreference(ctx context.Context, userID string) error {
	if err := s.repos.Preference.Delete(ctx, userID); err != nil {
		return err
	}
	s.evictUser(userID)
	return nil
}

// ListKeys returns the user's stored provider keys. Key material is never
// included; only the display prefix.
func (s *PreferenceService) ListKeys(ctx context.Context, userID string) ([]*models.UserProviderKey, error) {
	return s.repos.ProviderKey.GetByUserID(ctx, userID)
}

// UpsertKey stores a provider API key for a user, encrypted at rest.
func (s *PreferenceService) UpsertKey(ctx context.Context, userID, provider, apiKey, baseURL string) (*models.UserProviderKey, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	def, err := s.repos.ProviderCatalog.GetByName(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to check provider %s: %w", provider, err)
	}
	if def == nil {
		return nil, fmt.Errorf("unknown provider %q", provider)
	}

	encrypted, err := s.encryptor.Encrypt(apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt API key: %w", err)
	}

	key := &models.UserProviderKey{
		UserID:          userID,
		Provider:        provider,
		APIKeyEncrypted: encrypted,
		KeyPrefix:       keyPrefix(apiKey),
		BaseURL:         baseURL,
		IsEnabled:       true,
	}
	if err := s.repos.ProviderKey.Upsert(ctx, key); err != nil {
		return nil, err
	}

	s.evictUser(userID)
	s.logger.Info("provider key stored", "user_id", userID, "provider", provider)
	return key, nil
}

// DeleteKey removes a user's key for a provider.
func (s *PreferenceService) DeleteKey(ctx context.Context, userID, provider string) error {
	if err := s.repos.ProviderKey.Delete(ctx, userID, provider); err != nil {
		return err
	}
	s.evictUser(userID)
	s.logger.Info("provider key deleted", "user_id", userID, "provider", provider)
	return nil
}

// ValidateKey probes a credential against the provider with a one-shot
// adapter. Only a definitive rejection yields false.
func (s *PreferenceService) ValidateKey(ctx context.Context, provider, apiKey, baseURL string) (bool, error) {
	return s.factory.ValidateProviderConfig(ctx, llm.ProviderConfig{
		Provider: provider,
		APIKey:   apiKey,
		BaseURL:  baseURL,
	})
}

func (s *PreferenceService) evictUser(userID string) {
	s.factory.Evict(userID)
	if s.invalidate != nil {
		s.invalidate(userID)
	}
}

// keyPrefix returns the display prefix of an API key.
func keyPrefix(apiKey string) string {
	if len(apiKey) <= 8 {
		return apiKey
	}
	return apiKey[:8]
}
