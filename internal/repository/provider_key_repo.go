package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/blogforge/blogforge-api/internal/models"
)

// SQLiteProviderKeyRepository implements ProviderKeyRepository for SQLite/libsql.
type SQLiteProviderKeyRepository struct {
	db *sql.DB
}

// NewSQLiteProviderKeyRepository creates a new SQLite provider key repository.
func NewSQLiteProviderKeyRepository(db *sql.DB) *SQLiteProviderKeyRepository {
	return &SQLiteProviderKeyRepository{db: db}
}

// Upsert creates or updates a user provider key.
func (r *SQLiteProviderKeyRepository) Upsert(ctx context.Context, key *models.UserProviderKey) error {
	now := time.Now().UTC().Format(time.RFC3339)

	if key.ID == "" {
		key.ID = ulid.Make().String()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_provider_keys (id, user_id, provider, api_key_encrypted, key_prefix, base_url, is_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, provider) DO UPDATE SET
			api_key_encrypted = excluded.api_key_encrypted,
			key_prefix = excluded.key_prefix,
			base_url = excluded.base_url,
			is_enabled = excluded.is_enabled,
			updated_at = excluded.updated_at
	`, key.ID, key.UserID, key.Provider, key.APIKeyEncrypted, key.KeyPrefix, key.BaseURL, key.IsEnabled, now, now)

	return err
}

// GetByUserID retrieves all provider keys for a user.
func (r *SQLiteProviderKeyRepository) GetByUserID(ctx context.Context, userID string) ([]*models.UserProviderKey, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, provider, api_key_encrypted, key_prefix, base_url, is_enabled, created_at, updated_at
		FROM user_provider_keys
		WHERE user_id = ?
		ORDER BY provider
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*models.UserProviderKey
	for rows.Next() {
		key, err := scanProviderKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// GetByUserAndProvider retrieves a specific provider key. Returns nil if not found.
func (r *SQLiteProviderKeyRepository) GetByUserAndProvider(ctx context.Context, userID, provider string) (*models.UserProviderKey, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, provider, api_key_encrypted, key_prefix, base_url, is_enabled, created_at, updated_at
		FROM user_provider_keys
		WHERE user_id = ? AND provider = ?
	`, userID, provider)

	key, err := scanProviderKey(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return key, err
}

// Delete removes a user's key for a provider.
func (r *SQLiteProviderKeyRepository) Delete(ctx context.Context, userID, provider string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM user_provider_keys WHERE user_id = ? AND provider = ?
	`, userID, provider)
	return err
}

func scanProviderKey(row rowScanner) (*models.UserProviderKey, error) {
	var key models.UserProviderKey
	var encrypted, keyPrefix, baseURL sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&key.ID,
		&key.UserID,
		&key.Provider,
		&encrypted,
		&keyPrefix,
		&baseURL,
		&key.IsEnabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	key.APIKeyEncrypted = encrypted.String
	key.KeyPrefix = keyPrefix.String
	key.BaseURL = baseURL.String
	key.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	key.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &key, nil
}
