package handlers

import (
	"net/http"
	"time"

	"github.com/collectedworks/backend/config"
	"github.com/collectedworks/backend/services/history"
	"github.com/collectedworks/backend/utils"
	"go.uber.org/zap"
)

// StatusResponse describes the running service configuration
type StatusResponse struct {
	Service        string         `json:"service"`
	Environment    string         `json:"environment"`
	EmbedModel     string         `json:"embed_model"`
	GenerateModel  string         `json:"generate_model"`
	TopK           int            `json:"top_k"`
	ScoreThreshold float64        `json:"score_threshold"`
	MaxContext     int            `json:"max_context"`
	HistoryEnabled bool           `json:"history_enabled"`
	History        *history.Stats `json:"history,omitempty"`
	Uptime         string         `json:"uptime"`
}

// StatusHandler reports service configuration and runtime state
type StatusHandler struct {
	cfg        *config.Config
	historySvc *history.Service
	startedAt  time.Time
	logger     *zap.Logger
}

// NewStatusHandler creates a new StatusHandler. historySvc may be nil.
func NewStatusHandler(cfg *config.Config, historySvc *history.Service, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		cfg:        cfg,
		historySvc: historySvc,
		startedAt:  time.Now(),
		logger:     logger,
	}
}

// HandleStatus handles GET /api/v1/status
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Service:        "collectedworks-backend",
		Environment:    h.cfg.Environment,
		EmbedModel:     h.cfg.Pinecone.EmbedModel,
		GenerateModel:  h.cfg.OpenAI.Model,
		TopK:           h.cfg.Retrieval.TopK,
		ScoreThreshold: h.cfg.Retrieval.ScoreThreshold,
		MaxContext:     h.cfg.Retrieval.MaxContext,
		HistoryEnabled: h.historySvc != nil,
		Uptime:         time.Since(h.startedAt).Round(time.Second).String(),
	}

	if h.historySvc != nil {
		stats := h.historySvc.GetStats()
		resp.History = &stats
	}

	_ = utils.WriteOK(w, resp)
}
