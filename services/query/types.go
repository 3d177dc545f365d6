package query

import (
	"github.com/collectedworks/backend/internal/rag"
	"github.com/collectedworks/backend/models"
)

// AskRequest is a question posed against the corpus, optionally carrying
// the prior turns of the conversation it continues.
type AskRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
	History  []Turn `json:"history,omitempty" validate:"max=20,dive"`
}

// Turn is one prior conversation exchange supplied by the client. Turns
// are passed to the generator ahead of the current question; they do not
// feed retrieval.
type Turn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=2000"`
}

// Source is one passage that survived relevance filtering, in the
// order it was handed to the generator.
type Source struct {
	Ref       int      `json:"ref"`
	WorkTitle string   `json:"work_title"`
	Chapter   string   `json:"chapter,omitempty"`
	Score     float64  `json:"score"`
	Excerpt   string   `json:"excerpt"`
	Concepts  []string `json:"concepts,omitempty"`
}

// AskResponse is the answer to an AskRequest.
type AskResponse struct {
	QueryID         string         `json:"query_id"`
	Answer          string         `json:"answer"`
	Sources         []Source       `json:"sources"`
	Citations       []rag.Citation `json:"citations"`
	RelatedConcepts []string       `json:"related_concepts,omitempty"`
	LatencyMs       int            `json:"latency_ms"`
}

// Recorder receives finished query logs for asynchronous persistence.
type Recorder interface {
	Submit(log *models.QueryLog) error
}
