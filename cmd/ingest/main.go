// Command ingest uploads cleaned volume text files to the vector index.
// Each .txt file in the input directory is cleaned, chunked into
// passages, embedded and upserted in batches.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/collectedworks/backend/config"
	"github.com/collectedworks/backend/internal/observability"
	"github.com/collectedworks/backend/services/ingest"
	"github.com/collectedworks/backend/services/providers/pinecone"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var dir string
	var dryRun bool
	flag.StringVar(&dir, "dir", "cleaned", "directory of volume .txt files to ingest")
	flag.BoolVar(&dryRun, "dry-run", false, "clean and chunk only, skip embedding and upserting")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	store := pinecone.NewAdapter(pinecone.Config{
		APIKey:     cfg.Pinecone.APIKey,
		IndexHost:  cfg.Pinecone.IndexHost,
		EmbedURL:   cfg.Pinecone.EmbedURL,
		EmbedModel: cfg.Pinecone.EmbedModel,
		Dimension:  cfg.Pinecone.Dimension,
		Namespace:  cfg.Pinecone.Namespace,
		Timeout:    cfg.Pinecone.Timeout,
		MaxRetries: cfg.Pinecone.MaxRetries,
	})

	logger.Info("starting ingestion",
		zap.String("dir", dir),
		zap.Bool("dry_run", dryRun),
		zap.String("embed_model", cfg.Pinecone.EmbedModel))

	svc := ingest.NewService(store, logger, ingest.Config{DryRun: dryRun})
	stats, err := svc.IngestDirectory(ctx, dir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if dryRun {
		fmt.Printf("dry run: %d files, %d chunks, nothing uploaded\n", stats.Files, stats.Chunks)
		return nil
	}
	fmt.Printf("ingested %d files, %d chunks uploaded\n", stats.Files, stats.Uploaded)
	return nil
}
