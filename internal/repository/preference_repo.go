package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/blogforge/blogforge-api/internal/models"
)

// SQLitePreferenceRepository implements PreferenceRepository for SQLite/libsql.
type SQLitePreferenceRepository struct {
	db *sql.DB
}

// NewSQLitePreferenceRepository creates a new SQLite preference repository.
func NewSQLitePreferenceRepository(db *sql.DB) *SQLitePreferenceRepository {
	return &SQLitePreferenceRepository{db: db}
}

// Get retrieves a user's routing preference. Returns nil if none is stored.
func (r *SQLitePreferenceRepository) Get(ctx context.Context, userID string) (*models.UserProviderPreference, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, primary_provider, primary_model, max_quality,
			fallback1_provider, fallback1_model, fallback2_provider, fallback2_model,
			enable_fallback, max_cost_per_1k, created_at, updated_at
		FROM user_llm_preferences
		WHERE user_id = ?
	`, userID)

	var pref models.UserProviderPreference
	var primaryModel, fb1Provider, fb1Model, fb2Provider, fb2Model sql.NullString
	var maxCost sql.NullFloat64
	var createdAt, updatedAt string

	err := row.Scan(
		&pref.UserID,
		&pref.PrimaryProvider,
		&primaryModel,
		&pref.MaxQuality,
		&fb1Provider,
		&fb1Model,
		&fb2Provider,
		&fb2Model,
		&pref.EnableFallback,
		&maxCost,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	pref.PrimaryModel = primaryModel.String
	pref.Fallback1Provider = fb1Provider.String
	pref.Fallback1Model = fb1Model.String
	pref.Fallback2Provider = fb2Provider.String
	pref.Fallback2Model = fb2Model.String
	if maxCost.Valid {
		pref.MaxCostPer1K = &maxCost.Float64
	}
	pref.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	pref.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &pref, nil
}

// Upsert creates or updates a user's routing preference.
func (r *SQLitePreferenceRepository) Upsert(ctx context.Context, pref *models.UserProviderPreference) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var maxCost any
	if pref.MaxCostPer1K != nil {
		maxCost = *pref.MaxCostPer1K
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_llm_preferences (user_id, primary_provider, primary_model, max_quality,
			fallback1_provider, fallback1_model, fallback2_provider, fallback2_model,
			enable_fallback, max_cost_per_1k, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			primary_provider = excluded.primary_provider,
			primary_model = excluded.primary_model,
			max_quality = excluded.max_quality,
			fallback1_provider = excluded.fallback1_provider,
			fallback1_model = excluded.fallback1_model,
			fallback2_provider = excluded.fallback2_provider,
			fallback2_model = excluded.fallback2_model,
			enable_fallback = excluded.enable_fallback,
			max_cost_per_1k = excluded.max_cost_per_1k,
			updated_at = excluded.updated_at
	`, pref.UserID, pref.PrimaryProvider, nullIfEmpty(pref.PrimaryModel), pref.MaxQuality,
		nullIfEmpty(pref.Fallback1Provider), nullIfEmpty(pref.Fallback1Model),
		nullIfEmpty(pref.Fallback2Provider), nullIfEmpty(pref.Fallback2Model),
		pref.EnableFallback, maxCost, now, now)

	return err
}

// Delete removes a user's routing preference.
func (r *SQLitePreferenceRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_llm_preferences WHERE user_id = ?`, userID)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
