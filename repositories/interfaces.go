package repositories

import (
	"context"

	"github.com/collectedworks/backend/models"
	"github.com/google/uuid"
)

// QueryLogRepository handles query log persistence
type QueryLogRepository interface {
	// Insert inserts a new query log entry
	Insert(ctx context.Context, log *models.QueryLog) error

	// GetByID retrieves a query log by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.QueryLog, error)

	// List retrieves the most recent query logs, newest first
	List(ctx context.Context, limit, offset int) ([]*models.QueryLog, error)

	// Count returns the total number of query logs
	Count(ctx context.Context) (int, error)
}
