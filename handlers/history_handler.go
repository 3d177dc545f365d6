package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/collectedworks/backend/middleware"
	"github.com/collectedworks/backend/models"
	"github.com/collectedworks/backend/services"
	"github.com/collectedworks/backend/utils"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// HistoryService defines the interface for browsing past queries
type HistoryService interface {
	// List returns recent query logs, newest first
	List(ctx context.Context, limit, offset int) ([]*models.QueryLog, int, error)
}

// HistoryListResponse is the paginated history listing
type HistoryListResponse struct {
	Items  []*models.QueryLog `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// HistoryHandler handles query history HTTP requests
type HistoryHandler struct {
	service HistoryService
	logger  *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler. service may be nil
// when history is disabled.
func NewHistoryHandler(service HistoryService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		logger:  logger,
	}
}

// HandleList handles GET /api/v1/history
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	if h.service == nil {
		HandleServiceError(w, services.ErrHistoryDisabled, h.logger)
		return
	}

	limit := parseIntParam(r, "limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		_ = utils.WriteBadRequest(w, "limit must be between 1 and 100", nil)
		return
	}

	offset := parseIntParam(r, "offset", 0)
	if offset < 0 {
		_ = utils.WriteBadRequest(w, "offset must not be negative", nil)
		return
	}

	items, total, err := h.service.List(ctx, limit, offset)
	if err != nil {
		h.logger.Error("failed to list query history",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, services.WrapInternal("failed to list query history", err), h.logger)
		return
	}

	if items == nil {
		items = []*models.QueryLog{}
	}

	_ = utils.WriteOK(w, HistoryListResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// parseIntParam reads an integer query parameter, falling back to def
// when absent or malformed
func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return val
}
