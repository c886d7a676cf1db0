// Package repository defines repository interfaces for data access.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/blogforge/blogforge-api/internal/models"
)

// ProviderCatalogRepository defines methods for provider catalog access.
type ProviderCatalogRepository interface {
	GetAll(ctx context.Context) ([]*models.ProviderDefinition, error)
	GetEnabled(ctx context.Context) ([]*models.ProviderDefinition, error)
	GetByName(ctx context.Context, name string) (*models.ProviderDefinition, error)
	SetEnabled(ctx context.Context, name string, enabled bool) error
}

// PreferenceRepository defines methods for user routing preference access.
type PreferenceRepository interface {
	Get(ctx context.Context, userID string) (*models.UserProviderPreference, error)
	Upsert(ctx context.Context, pref *models.UserProviderPreference) error
	Delete(ctx context.Context, userID string) error
}

// ProviderKeyRepository defines methods for user provider key access.
type ProviderKeyRepository interface {
	Upsert(ctx context.Context, key *models.UserProviderKey) error
	GetByUserID(ctx context.Context, userID string) ([]*models.UserProviderKey, error)
	GetByUserAndProvider(ctx context.Context, userID, provider string) (*models.UserProviderKey, error)
	Delete(ctx context.Context, userID, provider string) error
}

// UsageLogRepository defines methods for generation usage log access.
type UsageLogRepository interface {
	Create(ctx context.Context, entry *models.UsageLogEntry) error
	GetByUserID(ctx context.Context, userID string, start, end time.Time, limit int) ([]*models.UsageLogEntry, error)
	GetSummary(ctx context.Context, userID string, start, end time.Time) (*models.UsageSummary, error)
	GetProviderBreakdown(ctx context.Context, userID string, start, end time.Time) ([]*models.ProviderUsage, error)
}

// Repositories bundles all repository instances.
type Repositories struct {
	ProviderCatalog ProviderCatalogRepository
	Preference      PreferenceRepository
	ProviderKey     ProviderKeyRepository
	UsageLog        UsageLogRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		ProviderCatalog: NewSQLiteProviderCatalogRepository(db),
		Preference:      NewSQLitePreferenceRepository(db),
		ProviderKey:     NewSQLiteProviderKeyRepository(db),
		UsageLog:        NewSQLiteUsageLogRepository(db),
	}
}
