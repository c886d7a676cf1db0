// Package service contains the business logic layer.
// Note: user identity is external; UserID values are the subject claims of
// the bearer tokens that authenticated the requests.
package service

import (
	"fmt"
	"log/slog"

	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/crypto"
	"github.com/blogforge/blogforge-api/internal/dataforseo"
	"github.com/blogforge/blogforge-api/internal/llm"
	"github.com/blogforge/blogforge-api/internal/repository"
)

// Services holds all service instances.
type Services struct {
	Blog       *BlogService
	Preference *PreferenceService
	Usage      *UsageService
	Keyword    *KeywordService
	Shopify    *ShopifyService
}

// NewServices creates all service instances.
func NewServices(cfg *config.Config, repos *repository.Repositories, pricing *llm.PricingLoader, logger *slog.Logger) (*Services, error) {
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	factory := llm.NewFactory(llm.FactoryConfig{
		Pricing:    pricing,
		MaxRetries: cfg.LLMMaxRetries,
		Timeout:    cfg.LLMTimeout,
		Logger:     logger,
	})

	credentials := NewCredentialResolver(cfg, repos.ProviderKey, encryptor)

	blogSvc := NewBlogService(factory, repos, credentials, logger)

	// Preference mutations must drop the user's cached router
	preferenceSvc := NewPreferenceService(repos, encryptor, factory, blogSvc.ClearRouterCache, logger)

	usageSvc := NewUsageService(repos, logger)

	// Keyword research is optional; disabled without DataForSEO credentials
	var dfsClient *dataforseo.Client
	if cfg.KeywordResearchEnabled() {
		dfsClient, err = dataforseo.New(dataforseo.Config{
			Login:    cfg.DataForSEOLogin,
			Password: cfg.DataForSEOPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create dataforseo client: %w", err)
		}
		logger.Info("keyword research enabled")
	} else {
		logger.Warn("keyword research NOT configured - keyword endpoints unavailable")
	}
	keywordSvc := NewKeywordService(dfsClient, logger)

	shopifySvc := NewShopifyService(logger)

	return &Services{
		Blog:       blogSvc,
		Preference: preferenceSvc,
		Usage:      usageSvc,
		Keyword:    keywordSvc,
		Shopify:    shopifySvc,
	}, nil
}
