package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/blogforge/blogforge-api/internal/models"
)

// SQLiteProviderCatalogRepository implements ProviderCatalogRepository for SQLite/libsql.
type SQLiteProviderCatalogRepository struct {
	db *sql.DB
}

// NewSQLiteProviderCatalogRepository creates a new SQLite provider catalog repository.
func NewSQLiteProviderCatalogRepository(db *sql.DB) *SQLiteProviderCatalogRepository {
	return &SQLiteProviderCatalogRepository{db: db}
}

const catalogColumns = `id, name, display_name, mode, default_model, models_json, quality_tier,
	supports_streaming, supports_structured, is_enabled, priority, created_at, updated_at`

// GetAll retrieves all catalog entries ordered by priority.
func (r *SQLiteProviderCatalogRepository) GetAll(ctx context.Context) ([]*models.ProviderDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+catalogColumns+`
		FROM llm_providers
		ORDER BY priority ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanDefinitions(rows)
}

// GetEnabled retrieves enabled catalog entries ordered by priority.
func (r *SQLiteProviderCatalogRepository) GetEnabled(ctx context.Context) ([]*models.ProviderDefinition, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+catalogColumns+`
		FROM llm_providers
		WHERE is_enabled = 1
		ORDER BY priority ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanDefinitions(rows)
}

// GetByName retrieves a catalog entry by provider name. Returns nil if not found.
func (r *SQLiteProviderCatalogRepository) GetByName(ctx context.Context, name string) (*models.ProviderDefinition, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+catalogColumns+`
		FROM llm_providers
		WHERE name = ?
	`, name)

	def, err := scanDefinition(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return def, err
}

// SetEnabled toggles a catalog entry.
func (r *SQLiteProviderCatalogRepository) SetEnabled(ctx context.Context, name string, enabled bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE llm_providers SET is_enabled = ?, updated_at = ? WHERE name = ?
	`, enabled, time.Now().UTC().Format(time.RFC3339), name)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row rowScanner) (*models.ProviderDefinition, error) {
	var def models.ProviderDefinition
	var modelsJSON, createdAt, updatedAt string

	err := row.Scan(
		&def.ID,
		&def.Name,
		&def.DisplayName,
		&def.Mode,
		&def.DefaultModel,
		&modelsJSON,
		&def.QualityTier,
		&def.SupportsStreaming,
		&def.SupportsStructured,
		&def.IsEnabled,
		&def.Priority,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if modelsJSON != "" {
		_ = json.Unmarshal([]byte(modelsJSON), &def.Models)
	}
	def.CreatedAt = parseTimeFlex(createdAt)
	def.UpdatedAt = parseTimeFlex(updatedAt)

	return &def, nil
}

func (r *SQLiteProviderCatalogRepository) scanDefinitions(rows *sql.Rows) ([]*models.ProviderDefinition, error) {
	var defs []*models.ProviderDefinition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// parseTimeFlex parses both RFC3339 and sqlite datetime('now') formats.
func parseTimeFlex(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}
