package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/collectedworks/backend/middleware"
	"github.com/collectedworks/backend/services/query"
	"github.com/collectedworks/backend/utils"
	"go.uber.org/zap"
)

// AskService defines the interface for answering questions
type AskService interface {
	// Ask answers a question against the corpus
	Ask(ctx context.Context, req *query.AskRequest) (*query.AskResponse, error)
}

// AskHandler handles question-answering HTTP requests
type AskHandler struct {
	service AskService
	logger  *zap.Logger
}

// NewAskHandler creates a new AskHandler
func NewAskHandler(service AskService, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		service: service,
		logger:  logger,
	}
}

// HandleAsk handles POST /api/v1/ask
func (h *AskHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req query.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid JSON in request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	resp, err := h.service.Ask(ctx, &req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("question answered",
		zap.String("request_id", requestID),
		zap.String("query_id", resp.QueryID),
		zap.Int("sources", len(resp.Sources)))

	_ = utils.WriteOK(w, resp)
}
