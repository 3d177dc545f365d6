package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/collectedworks/backend/config"
	"github.com/collectedworks/backend/services/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func statusConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Pinecone:    config.PineconeConfig{EmbedModel: "multilingual-e5-large"},
		OpenAI:      config.OpenAIConfig{Model: "gpt-4o-mini"},
		Retrieval: config.RetrievalConfig{
			TopK:           6,
			ScoreThreshold: 0.7,
			MaxContext:     3,
		},
	}
}

func TestHandleStatus(t *testing.T) {
	logger := zap.NewNop()

	t.Run("reports configuration without history", func(t *testing.T) {
		handler := NewStatusHandler(statusConfig(), nil, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		w := httptest.NewRecorder()

		handler.HandleStatus(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data StatusResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "collectedworks-backend", resp.Data.Service)
		assert.Equal(t, "multilingual-e5-large", resp.Data.EmbedModel)
		assert.Equal(t, "gpt-4o-mini", resp.Data.GenerateModel)
		assert.Equal(t, 6, resp.Data.TopK)
		assert.InDelta(t, 0.7, resp.Data.ScoreThreshold, 1e-9)
		assert.False(t, resp.Data.HistoryEnabled)
		assert.Nil(t, resp.Data.History)
	})

	t.Run("includes history stats when enabled", func(t *testing.T) {
		svc := history.NewService(nil, zap.NewNop(), history.Config{BufferSize: 10, WorkerCount: 1})
		require.NoError(t, svc.Start())
		defer svc.Stop(time.Second)

		handler := NewStatusHandler(statusConfig(), svc, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		w := httptest.NewRecorder()

		handler.HandleStatus(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data StatusResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Data.HistoryEnabled)
		require.NotNil(t, resp.Data.History)
		assert.Equal(t, 10, resp.Data.History.BufferSize)
	})
}
