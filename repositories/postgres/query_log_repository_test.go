package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/collectedworks/backend/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return &DB{DB: mockDB, logger: zap.NewNop()}, mock
}

func TestQueryLogRepositoryInsert(t *testing.T) {
	t.Run("inserts completed query", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQueryLogRepository(db, zap.NewNop())

		log := models.NewQueryLog(uuid.New(), "What is individuation?").
			WithAnswer("Individuation is the process of becoming whole.", 812, 47).
			WithSources([]string{"Psychological Types", "Aion"}).
			WithLatency(1200 * time.Millisecond)

		mock.ExpectExec("INSERT INTO query_logs").
			WithArgs(
				log.ID, log.Question, log.Answer, log.Status, nil,
				log.Sources, 2, 812, 47, 1200, log.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Insert(context.Background(), log)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inserts failed query with stage", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewQueryLogRepository(db, zap.NewNop())

		log := models.NewQueryLog(uuid.New(), "What is the shadow?").
			MarkFailed(models.QueryStageEmbedding)

		mock.ExpectExec("INSERT INTO query_logs").
			WithArgs(
				log.ID, log.Question, "", models.QueryStatusFailed, log.FailStage,
				log.Sources, 0, 0, 0, 0, log.CreatedAt,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Insert(context.Background(), log)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueryLogRepositoryGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQueryLogRepository(db, zap.NewNop())

	id := uuid.New()
	created := time.Now()

	t.Run("returns stored row", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "question", "answer", "status", "fail_stage", "sources",
			"source_count", "prompt_tokens", "completion_tokens", "latency_ms", "created_at",
		}).AddRow(
			id, "What are archetypes?", "Archetypes are inherited patterns.", "complete", nil,
			pq.StringArray{"The Archetypes and the Collective Unconscious"}, 1, 640, 52, 980, created,
		)

		mock.ExpectQuery("SELECT (.+) FROM query_logs").
			WithArgs(id).
			WillReturnRows(rows)

		log, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, id, log.ID)
		assert.Equal(t, models.QueryStatusComplete, log.Status)
		assert.Nil(t, log.FailStage)
		assert.Equal(t, 1, log.SourceCount)
	})

	t.Run("missing row returns error", func(t *testing.T) {
		missing := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM query_logs").
			WithArgs(missing).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByID(context.Background(), missing)
		assert.ErrorContains(t, err, "not found")
	})
}

func TestQueryLogRepositoryList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQueryLogRepository(db, zap.NewNop())

	rows := sqlmock.NewRows([]string{
		"id", "question", "answer", "status", "fail_stage", "sources",
		"source_count", "prompt_tokens", "completion_tokens", "latency_ms", "created_at",
	}).
		AddRow(uuid.New(), "q2", "a2", "complete", nil, pq.StringArray{}, 0, 10, 5, 100, time.Now()).
		AddRow(uuid.New(), "q1", "a1", "failed", "generating", pq.StringArray{}, 0, 0, 0, 50, time.Now().Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM query_logs ORDER BY created_at DESC").
		WithArgs(20, 0).
		WillReturnRows(rows)

	logs, err := repo.List(context.Background(), 20, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "q2", logs[0].Question)
	require.NotNil(t, logs[1].FailStage)
	assert.Equal(t, models.QueryStageGenerating, *logs[1].FailStage)
}

func TestQueryLogRepositoryCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQueryLogRepository(db, zap.NewNop())

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
