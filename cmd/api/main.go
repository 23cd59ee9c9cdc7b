// @title           Archivista Document QA API
// @version         1.0
// @description     Question answering over an ingested historical document archive.
// @termsOfService  http://swagger.io/terms/

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmendez/archivista/internal/cache"
	"github.com/dmendez/archivista/internal/config"
	"github.com/dmendez/archivista/internal/domain/docmodel"
	"github.com/dmendez/archivista/internal/handlers"
	"github.com/dmendez/archivista/internal/metrics"
	"github.com/dmendez/archivista/internal/rag"
	"github.com/dmendez/archivista/internal/rag/embedding"
	"github.com/dmendez/archivista/internal/rag/embedding/googleembed"
	"github.com/dmendez/archivista/internal/rag/embedding/openaiembed"
	"github.com/dmendez/archivista/internal/rag/llm"
	"github.com/dmendez/archivista/internal/rag/llm/geminillm"
	"github.com/dmendez/archivista/internal/rag/llm/openaillm"
	"github.com/dmendez/archivista/internal/server"
	"github.com/dmendez/archivista/internal/store"
	"github.com/dmendez/archivista/internal/vectorindex"
	"github.com/dmendez/archivista/internal/vectorindex/flat"
	"github.com/dmendez/archivista/internal/vectorindex/qdrantindex"
	"github.com/dmendez/archivista/pkg/logger_i"
)

var listenAddr string

func main() {
	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	settings := config.Load()

	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	// Missing artifacts mean the service starts degraded: /health still
	// answers, /chat replies ungrounded.
	var records []docmodel.ChunkRecord
	manifest, err := store.Load(settings.DocsPath())
	if err != nil {
		logger.Warn("No ingested archive found, starting degraded", "path", settings.DocsPath(), "error", err)
	} else {
		if manifest.EmbeddingModel != settings.EmbeddingModel {
			logger.Error("Archive was embedded with a different model; re-ingest or change OPENAI_EMBEDDING_MODEL",
				"archive_model", manifest.EmbeddingModel, "configured_model", settings.EmbeddingModel)
			return
		}
		records = manifest.Records
	}

	var index vectorindex.Index
	if manifest != nil {
		switch settings.IndexBackend {
		case "qdrant":
			qidx, err := qdrantindex.New(serviceContext, settings.QdrantHost, settings.QdrantPort, config.QdrantCollection, manifest.EmbeddingDim)
			if err != nil {
				logger.Error("Qdrant is unreachable", "error", err)
				return
			}
			defer qidx.Close()
			if err := qidx.Load(serviceContext, ""); err != nil {
				logger.Error("Could not read the Qdrant collection", "error", err)
				return
			}
			index = qidx
		default:
			fidx := flat.New(manifest.EmbeddingDim)
			if err := fidx.Load(serviceContext, settings.IndexPath()); err != nil {
				logger.Warn("No vector index found, starting degraded", "path", settings.IndexPath(), "error", err)
				records = nil
			} else {
				index = fidx
			}
		}
	}

	// The index and the metadata are positionally aligned; a length
	// mismatch means the artifacts are from different ingest runs.
	if index != nil && index.Len() != len(records) {
		logger.Error("Index and metadata are out of sync; re-ingest",
			"index_len", index.Len(), "records", len(records))
		return
	}

	var embedder embedding.Embedder
	var provider llm.Provider
	switch settings.LLMProvider {
	case "gemini":
		embedder, err = googleembed.New(serviceContext, settings.GeminiAPIKey, settings.EmbeddingModel)
		if err == nil {
			provider, err = geminillm.New(serviceContext, settings.GeminiAPIKey, settings.Model)
		}
		if err != nil {
			logger.Error("Could not initialize the Gemini clients", "error", err)
			return
		}
	default:
		embedder = openaiembed.New(settings.OpenAIAPIKey, settings.EmbeddingModel)
		provider = openaillm.New(settings.OpenAIAPIKey, settings.Model)
	}

	answers := cache.New(serviceContext, settings.RedisAddr)
	if answers == nil {
		logger.Warn("Redis is offline, answer caching disabled", "addr", settings.RedisAddr)
	}

	retriever := rag.NewRetriever(embedder, index, records)
	ragService := rag.NewService(retriever, provider, answers, settings.Persona)

	metrics.SetIndexedFragments(len(records))
	logger.Info("Archive loaded", "fragments", len(records), "backend", settings.IndexBackend, "provider", settings.LLMProvider)

	chatHandler := handlers.New(ragService, settings.Model)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, chatHandler)

	<-stopExecution
	logger.Info("Server stopped")
}
