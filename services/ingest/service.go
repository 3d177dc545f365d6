package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/collectedworks/backend/services/providers/pinecone"
	"go.uber.org/zap"
)

// batchSize is the number of chunks embedded and upserted per call.
// Kept small to stay under the inference endpoint's rate limits.
const batchSize = 50

// metadataTextLimit caps stored passage text per vector
const metadataTextLimit = 8000

// VectorStore is the subset of the Pinecone adapter the ingester needs
type VectorStore interface {
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
	Upsert(ctx context.Context, vectors []pinecone.Vector) error
}

// Config controls one ingestion run
type Config struct {
	DryRun bool // clean and chunk only, skip embedding and upserting
}

// Stats summarizes one ingestion run
type Stats struct {
	Files    int
	Chunks   int
	Uploaded int
}

// Service cleans, chunks, embeds and uploads volume text files
type Service struct {
	store  VectorStore
	logger *zap.Logger
	dryRun bool
}

// NewService creates a new ingest Service
func NewService(store VectorStore, logger *zap.Logger, config Config) *Service {
	return &Service{
		store:  store,
		logger: logger,
		dryRun: config.DryRun,
	}
}

// IngestDirectory processes every .txt file under dir
func (s *Service) IngestDirectory(ctx context.Context, dir string) (*Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no .txt files found in %s", dir)
	}

	stats := &Stats{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunks, uploaded, err := s.ingestFile(ctx, file)
		if err != nil {
			return stats, fmt.Errorf("failed to ingest %s: %w", filepath.Base(file), err)
		}

		stats.Files++
		stats.Chunks += chunks
		stats.Uploaded += uploaded
	}

	s.logger.Info("ingestion complete",
		zap.Int("files", stats.Files),
		zap.Int("chunks", stats.Chunks),
		zap.Int("uploaded", stats.Uploaded))

	return stats, nil
}

// ingestFile cleans and chunks one file, then uploads it in batches
func (s *Service) ingestFile(ctx context.Context, path string) (total, uploaded int, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read file: %w", err)
	}

	name := filepath.Base(path)
	cleaned := CleanText(string(raw))
	chunks := CreateChunks(cleaned, name)

	s.logger.Info("chunked volume",
		zap.String("file", name),
		zap.String("work_title", TitleFromFilename(name)),
		zap.Int("chunks", len(chunks)))

	if s.dryRun {
		return len(chunks), 0, nil
	}

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if err := s.uploadBatch(ctx, batch); err != nil {
			return len(chunks), uploaded, err
		}
		uploaded += len(batch)

		s.logger.Debug("uploaded batch",
			zap.String("file", name),
			zap.Int("batch_start", start),
			zap.Int("batch_size", len(batch)))
	}

	return len(chunks), uploaded, nil
}

// uploadBatch embeds a batch of chunks and upserts the vectors
func (s *Service) uploadBatch(ctx context.Context, batch []Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	embeddings, err := s.store.EmbedPassages(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed batch: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", len(embeddings), len(batch))
	}

	vectors := make([]pinecone.Vector, len(batch))
	for i, c := range batch {
		text := c.Text
		if len(text) > metadataTextLimit {
			text = text[:metadataTextLimit]
		}

		vectors[i] = pinecone.Vector{
			ID:     c.ID,
			Values: embeddings[i],
			Metadata: pinecone.ChunkMetadata{
				Text:        text,
				SourceFile:  c.SourceFile,
				WorkTitle:   c.WorkTitle,
				Chapter:     c.Chapter,
				ChunkIndex:  c.ChunkIndex,
				TotalChunks: c.TotalChunks,
				Concepts:    c.Concepts,
			},
		}
	}

	if err := s.store.Upsert(ctx, vectors); err != nil {
		return fmt.Errorf("failed to upsert batch: %w", err)
	}
	return nil
}
