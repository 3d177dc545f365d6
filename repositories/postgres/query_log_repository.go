package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/collectedworks/backend/models"
	"github.com/collectedworks/backend/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueryLogRepository implements the repositories.QueryLogRepository interface
type QueryLogRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewQueryLogRepository creates a new query log repository
func NewQueryLogRepository(db *DB, logger *zap.Logger) repositories.QueryLogRepository {
	return &QueryLogRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new query log entry
// This method supports async insert patterns by being non-blocking
func (r *QueryLogRepository) Insert(ctx context.Context, log *models.QueryLog) error {
	query := `
		INSERT INTO query_logs (
			id, question, answer, status, fail_stage, sources, source_count,
			prompt_tokens, completion_tokens, latency_ms, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.Question,
		log.Answer,
		log.Status,
		log.FailStage,
		log.Sources,
		log.SourceCount,
		log.PromptTokens,
		log.CompletionTokens,
		log.LatencyMs,
		log.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert query log: %w", err)
	}

	r.logger.Debug("query log inserted",
		zap.String("id", log.ID.String()),
		zap.String("status", string(log.Status)))
	return nil
}

// GetByID retrieves a query log by ID
func (r *QueryLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QueryLog, error) {
	query := `
		SELECT id, question, answer, status, fail_stage, sources, source_count,
		       prompt_tokens, completion_tokens, latency_ms, created_at
		FROM query_logs
		WHERE id = $1
	`

	log := &models.QueryLog{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&log.ID,
		&log.Question,
		&log.Answer,
		&log.Status,
		&log.FailStage,
		&log.Sources,
		&log.SourceCount,
		&log.PromptTokens,
		&log.CompletionTokens,
		&log.LatencyMs,
		&log.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("query log not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get query log: %w", err)
	}

	return log, nil
}

// List retrieves the most recent query logs, newest first
func (r *QueryLogRepository) List(ctx context.Context, limit, offset int) ([]*models.QueryLog, error) {
	query := `
		SELECT id, question, answer, status, fail_stage, sources, source_count,
		       prompt_tokens, completion_tokens, latency_ms, created_at
		FROM query_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list query logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.QueryLog
	for rows.Next() {
		log := &models.QueryLog{}
		if err := rows.Scan(
			&log.ID,
			&log.Question,
			&log.Answer,
			&log.Status,
			&log.FailStage,
			&log.Sources,
			&log.SourceCount,
			&log.PromptTokens,
			&log.CompletionTokens,
			&log.LatencyMs,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan query log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate query logs: %w", err)
	}

	return logs, nil
}

// Count returns the total number of query logs
func (r *QueryLogRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_logs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count query logs: %w", err)
	}
	return count, nil
}
