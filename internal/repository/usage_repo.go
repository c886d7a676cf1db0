package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/blogforge/blogforge-api/internal/models"
)

// SQLiteUsageLogRepository implements UsageLogRepository for SQLite/libsql.
type SQLiteUsageLogRepository struct {
	db *sql.DB
}

// NewSQLiteUsageLogRepository creates a new SQLite usage log repository.
func NewSQLiteUsageLogRepository(db *sql.DB) *SQLiteUsageLogRepository {
	return &SQLiteUsageLogRepository{db: db}
}

// Create appends a usage log entry. Entries are immutable once written.
func (r *SQLiteUsageLogRepository) Create(ctx context.Context, entry *models.UsageLogEntry) error {
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO llm_usage_log (id, user_id, provider, model, operation,
			input_tokens, output_tokens, estimated_cost, success,
			error_message, error_category, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.Provider, entry.Model, entry.Operation,
		entry.InputTokens, entry.OutputTokens, entry.EstimatedCost, entry.Success,
		nullIfEmpty(entry.ErrorMessage), nullIfEmpty(entry.ErrorCategory),
		entry.LatencyMs, entry.CreatedAt.Format(time.RFC3339))

	return err
}

// GetByUserID retrieves usage entries for a user in a time range, newest first.
func (r *SQLiteUsageLogRepository) GetByUserID(ctx context.Context, userID string, start, end time.Time, limit int) ([]*models.UsageLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, provider, model, operation,
			input_tokens, output_tokens, estimated_cost, success,
			error_message, error_category, latency_ms, created_at
		FROM llm_usage_log
		WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.UsageLogEntry
	for rows.Next() {
		var e models.UsageLogEntry
		var errMsg, errCat sql.NullString
		var createdAt string

		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Provider, &e.Model, &e.Operation,
			&e.InputTokens, &e.OutputTokens, &e.EstimatedCost, &e.Success,
			&errMsg, &errCat, &e.LatencyMs, &createdAt,
		); err != nil {
			return nil, err
		}

		e.ErrorMessage = errMsg.String
		e.ErrorCategory = errCat.String
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// GetSummary aggregates usage for a user over a time range.
func (r *SQLiteUsageLogRepository) GetSummary(ctx context.Context, userID string, start, end time.Time) (*models.UsageSummary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(estimated_cost), 0)
		FROM llm_usage_log
		WHERE user_id = ? AND created_at >= ? AND created_at <= ?
	`, userID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))

	summary := &models.UsageSummary{
		PeriodStart: start,
		PeriodEnd:   end,
	}

	if err := row.Scan(
		&summary.TotalRequests,
		&summary.SuccessCount,
		&summary.InputTokens,
		&summary.OutputTokens,
		&summary.TotalCost,
	); err != nil {
		return nil, err
	}

	if summary.TotalRequests > 0 {
		summary.SuccessRate = float64(summary.SuccessCount) / float64(summary.TotalRequests)
	}

	return summary, nil
}

// GetProviderBreakdown aggregates usage per provider over a time range.
func (r *SQLiteUsageLogRepository) GetProviderBreakdown(ctx context.Context, userID string, start, end time.Time) ([]*models.ProviderUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT provider,
			COUNT(*),
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0),
			COALESCE(SUM(estimated_cost), 0)
		FROM llm_usage_log
		WHERE user_id = ? AND created_at >= ? AND created_at <= ?
		GROUP BY provider
		ORDER BY COUNT(*) DESC
	`, userID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var breakdown []*models.ProviderUsage
	for rows.Next() {
		var p models.ProviderUsage
		if err := rows.Scan(
			&p.Provider, &p.Requests, &p.SuccessCount,
			&p.InputTokens, &p.OutputTokens, &p.TotalCost,
		); err != nil {
			return nil, err
		}
		breakdown = append(breakdown, &p)
	}

	return breakdown, rows.Err()
}
