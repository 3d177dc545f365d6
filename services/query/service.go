package query

import (
	"context"
	"strings"
	"time"

	"github.com/collectedworks/backend/config"
	"github.com/collectedworks/backend/internal/rag"
	"github.com/collectedworks/backend/models"
	"github.com/collectedworks/backend/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// excerptLimit caps how much passage text is echoed back per source.
const excerptLimit = 280

// Service orchestrates the retrieval and generation pipeline for one
// question: embed, search, filter, assemble, generate. It holds no
// per-request state, so a single instance serves concurrent requests.
type Service struct {
	embedder  rag.Embedder
	searcher  rag.Searcher
	generator rag.Generator
	recorder  Recorder
	cfg       config.RetrievalConfig
	logger    *zap.Logger
}

// NewService creates a new query service. recorder may be nil when
// query history is disabled.
func NewService(
	embedder rag.Embedder,
	searcher rag.Searcher,
	generator rag.Generator,
	recorder Recorder,
	cfg config.RetrievalConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		embedder:  embedder,
		searcher:  searcher,
		generator: generator,
		recorder:  recorder,
		cfg:       cfg,
		logger:    logger,
	}
}

// Ask answers a question against the corpus.
//
// The question is rejected before any upstream call when it is empty or
// whitespace. Upstream failures (embedding, search, generation) abort the
// request; no partial answer is ever returned. An empty filter result is
// not a failure: the generator is switched to the no-context instruction
// and the response carries no citations.
func (s *Service) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	queryID := uuid.New()
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, services.ErrEmptyQuestion
	}

	s.logger.Info("starting query pipeline",
		zap.String("query_id", queryID.String()),
		zap.Int("question_len", len(question)))

	queryLog := models.NewQueryLog(queryID, question)

	// Step 1: embed the question
	s.logger.Debug("step 1: embedding question", zap.String("query_id", queryID.String()))
	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, s.fail(queryLog, models.QueryStageEmbedding, start,
			services.WrapExternal("embedding service failure", err))
	}

	// Step 2: vector search
	s.logger.Debug("step 2: searching index",
		zap.String("query_id", queryID.String()),
		zap.Int("top_k", s.cfg.TopK))
	results, err := s.searcher.Search(ctx, vector, s.cfg.TopK)
	if err != nil {
		return nil, s.fail(queryLog, models.QueryStageSearching, start,
			services.WrapExternal("vector search failure", err))
	}

	// Step 3: relevance filter
	kept := rag.FilterRelevant(results, s.cfg.ScoreThreshold, s.cfg.MaxContext)
	s.logger.Debug("step 3: filtered results",
		zap.String("query_id", queryID.String()),
		zap.Int("retrieved", len(results)),
		zap.Int("kept", len(kept)))

	// Step 4: assemble the instruction and citation list
	system, citations := rag.AssembleContext(kept)
	s.logger.Debug("step 4: assembled context",
		zap.String("query_id", queryID.String()),
		zap.Int("citations", len(citations)))

	// Step 5: generate the answer, with any prior turns ahead of the question
	s.logger.Debug("step 5: generating answer",
		zap.String("query_id", queryID.String()),
		zap.Int("history_turns", len(req.History)))
	messages := make([]rag.Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		messages = append(messages, rag.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, rag.Message{Role: "user", Content: question})
	gen, err := s.generator.Generate(ctx, system, messages)
	if err != nil {
		return nil, s.fail(queryLog, models.QueryStageGenerating, start,
			services.WrapExternal("answer generation failure", err))
	}

	related := rag.SampleConcepts(kept, s.cfg.RelatedConcepts, time.Now().UnixNano())
	latency := time.Since(start)

	resp := &AskResponse{
		QueryID:         queryID.String(),
		Answer:          gen.Text,
		Sources:         buildSources(kept),
		Citations:       citations,
		RelatedConcepts: related,
		LatencyMs:       int(latency.Milliseconds()),
	}

	queryLog.
		WithAnswer(gen.Text, gen.PromptTokens, gen.CompletionTokens).
		WithSources(sourceTitles(citations)).
		WithLatency(latency)
	s.record(queryLog)

	s.logger.Info("query pipeline complete",
		zap.String("query_id", queryID.String()),
		zap.Int("sources", len(resp.Sources)),
		zap.Duration("latency", latency))

	return resp, nil
}

// fail records the failed stage and returns the wrapped error. The caller
// gets no partial result.
func (s *Service) fail(log *models.QueryLog, stage models.QueryStage, start time.Time, err error) error {
	log.MarkFailed(stage).WithLatency(time.Since(start))
	s.record(log)

	s.logger.Error("query pipeline failed",
		zap.String("query_id", log.ID.String()),
		zap.String("stage", string(stage)),
		zap.Error(err))

	return err
}

func (s *Service) record(log *models.QueryLog) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Submit(log); err != nil {
		s.logger.Warn("failed to submit query log",
			zap.String("query_id", log.ID.String()),
			zap.Error(err))
	}
}

func buildSources(kept []rag.SearchResult) []Source {
	sources := make([]Source, 0, len(kept))
	for i, r := range kept {
		sources = append(sources, Source{
			Ref:       i + 1,
			WorkTitle: r.WorkTitle,
			Chapter:   r.Chapter,
			Score:     r.Score,
			Excerpt:   excerpt(r.Text),
			Concepts:  r.Concepts,
		})
	}
	return sources
}

func sourceTitles(citations []rag.Citation) []string {
	titles := make([]string, 0, len(citations))
	for _, c := range citations {
		titles = append(titles, c.WorkTitle)
	}
	return titles
}

func excerpt(text string) string {
	if len(text) <= excerptLimit {
		return text
	}

	cut := text[:excerptLimit]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}
