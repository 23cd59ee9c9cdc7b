package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/ingest"
	"github.com/dmendez/archivista/internal/rag/embedding"
	"github.com/dmendez/archivista/internal/rag/embedding/googleembed"
	"github.com/dmendez/archivista/internal/rag/embedding/openaiembed"
	"github.com/dmendez/archivista/internal/store"
	"github.com/dmendez/archivista/internal/textproc"
	"github.com/dmendez/archivista/internal/vectorindex"
	"github.com/dmendez/archivista/internal/vectorindex/flat"
	"github.com/dmendez/archivista/internal/vectorindex/qdrantindex"
	"github.com/dmendez/archivista/pkg/logger_i"
)

func main() {
	logger_i.Init()
	var logger = logger_i.NewLogger("ingest")

	settings := config.Load()
	if err := settings.ValidateIngest(); err != nil {
		logger.Error("Configuration is incomplete", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
		<-interrupt
		cancel()
	}()

	counter, err := textproc.NewTiktokenCounter(config.TokenizerEncoding)
	if err != nil {
		logger.Error("Tokenizer unavailable", "encoding", config.TokenizerEncoding, "error", err)
		os.Exit(1)
	}
	chunker := textproc.NewChunker(counter, nil, config.ChunkTokens, config.OverlapTokens)

	var embedder embedding.Embedder
	switch settings.LLMProvider {
	case "gemini":
		embedder, err = googleembed.New(ctx, settings.GeminiAPIKey, settings.EmbeddingModel)
		if err != nil {
			logger.Error("Could not initialize the Gemini embedding client", "error", err)
			os.Exit(1)
		}
	default:
		embedder = openaiembed.New(settings.OpenAIAPIKey, settings.EmbeddingModel)
	}

	var index vectorindex.Index
	switch settings.IndexBackend {
	case "qdrant":
		// Staging handle: the fresh collection replaces the served one
		// only when index.Save runs after a successful pipeline.
		qidx, err := qdrantindex.NewStaging(ctx, settings.QdrantHost, settings.QdrantPort, config.QdrantCollection, config.EmbeddingDim)
		if err != nil {
			logger.Error("Qdrant is unreachable", "error", err)
			os.Exit(1)
		}
		defer qidx.Close()
		index = qidx
	default:
		index = flat.New(config.EmbeddingDim)
	}

	pipeline := ingest.NewPipeline(chunker, embedder, index)

	records, report, err := pipeline.Run(ctx, settings.DataDir)
	if err != nil {
		logger.Error("Ingestion failed", "error", err)
		if report != nil {
			printFailures(report)
		}
		os.Exit(1)
	}

	if err := os.MkdirAll(settings.StorageDir, 0o755); err != nil {
		logger.Error("Could not create the storage directory", "dir", settings.StorageDir, "error", err)
		os.Exit(1)
	}
	if err := index.Save(ctx, settings.IndexPath()); err != nil {
		logger.Error("Could not save the vector index", "path", settings.IndexPath(), "error", err)
		os.Exit(1)
	}

	manifest := &store.Manifest{
		EmbeddingModel: embedder.Model(),
		EmbeddingDim:   config.EmbeddingDim,
		CreatedAt:      time.Now().UTC(),
		Records:        records,
	}
	if err := store.Save(settings.DocsPath(), manifest); err != nil {
		logger.Error("Could not save the chunk metadata", "path", settings.DocsPath(), "error", err)
		os.Exit(1)
	}

	fmt.Printf("Ingestion complete.\n")
	fmt.Printf("  files found:    %d\n", report.FilesFound)
	fmt.Printf("  files indexed:  %d\n", report.FilesOK)
	fmt.Printf("  fragments:      %d\n", report.Chunks)
	fmt.Printf("  index:          %s\n", settings.IndexPath())
	fmt.Printf("  metadata:       %s\n", settings.DocsPath())
	printFailures(report)
}

func printFailures(report *ingest.Report) {
	if len(report.Failures) == 0 {
		return
	}
	fmt.Printf("  skipped files:\n")
	for _, f := range report.Failures {
		fmt.Printf("    %s: %s\n", f.File, f.Error)
	}
}
