package rag

import "context"

// UnknownWorkTitle is the sentinel used when a stored chunk carries no
// work_title metadata. Defaulting happens once, at the search boundary.
const UnknownWorkTitle = "Unknown"

// SearchResult is one retrieved chunk paired with its cosine similarity
// score in [-1, 1]. It has no identity beyond its position in the batch
// that returned it and is discarded when the request completes.
type SearchResult struct {
	Text      string
	WorkTitle string
	Chapter   string
	Concepts  []string
	Score     float64
}

// Citation is a user-facing source reference. Ref matches the [i] marker
// used in the assembled context block; numbering is 1-based and positional,
// not stable across requests.
type Citation struct {
	Ref       int    `json:"ref"`
	WorkTitle string `json:"work_title"`
	Chapter   string `json:"chapter,omitempty"`
}

// Message is a role-tagged conversation turn passed through to the generator.
type Message struct {
	Role    string
	Content string
}

// Generation is the generator's answer for a single request.
type Generation struct {
	Text             string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// Embedder converts a query string into a fixed-length vector. Query and
// passage embedding are distinct operations on the underlying model;
// implementations must mark the input accordingly.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Searcher returns up to topK stored chunks ordered by descending
// similarity. Results are approximate; an empty set is a valid outcome.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
}

// Generator produces answer text from a system instruction and the
// conversation messages.
type Generator interface {
	Generate(ctx context.Context, system string, messages []Message) (*Generation, error)
}
