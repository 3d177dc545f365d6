package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// QueryStatus represents the terminal outcome of a query.
type QueryStatus string

const (
	QueryStatusComplete QueryStatus = "complete"
	QueryStatusFailed   QueryStatus = "failed"
)

// QueryStage identifies the pipeline stage a failed query died in.
type QueryStage string

const (
	QueryStageEmbedding  QueryStage = "embedding"
	QueryStageSearching  QueryStage = "searching"
	QueryStageGenerating QueryStage = "generating"
)

// QueryLog represents one answered (or failed) question.
type QueryLog struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	Question         string         `json:"question" db:"question"`
	Answer           string         `json:"answer" db:"answer"`
	Status           QueryStatus    `json:"status" db:"status"`
	FailStage        *QueryStage    `json:"fail_stage,omitempty" db:"fail_stage"`
	Sources          pq.StringArray `json:"sources" db:"sources"`
	SourceCount      int            `json:"source_count" db:"source_count"`
	PromptTokens     int            `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int            `json:"completion_tokens" db:"completion_tokens"`
	LatencyMs        int            `json:"latency_ms" db:"latency_ms"`
	CreatedAt        time.Time      `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the QueryLog model
func (QueryLog) TableName() string {
	return "query_logs"
}

// NewQueryLog creates a new QueryLog for the given question.
func NewQueryLog(id uuid.UUID, question string) *QueryLog {
	return &QueryLog{
		ID:        id,
		Question:  question,
		Status:    QueryStatusComplete,
		CreatedAt: time.Now(),
	}
}

// MarkFailed records the stage the query failed in.
func (q *QueryLog) MarkFailed(stage QueryStage) *QueryLog {
	q.Status = QueryStatusFailed
	q.FailStage = &stage
	return q
}

// WithAnswer sets the generated answer and its token usage.
func (q *QueryLog) WithAnswer(answer string, promptTokens, completionTokens int) *QueryLog {
	q.Answer = answer
	q.PromptTokens = promptTokens
	q.CompletionTokens = completionTokens
	return q
}

// WithSources records the cited work titles.
func (q *QueryLog) WithSources(sources []string) *QueryLog {
	q.Sources = sources
	q.SourceCount = len(sources)
	return q
}

// WithLatency records the end-to-end latency.
func (q *QueryLog) WithLatency(d time.Duration) *QueryLog {
	q.LatencyMs = int(d.Milliseconds())
	return q
}
