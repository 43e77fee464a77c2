package main

import (
	"context"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"docuchat/internal/assembler"
	"docuchat/internal/chunkstore"
	"docuchat/internal/config"
	"docuchat/internal/http"
	"docuchat/internal/llm"
	"docuchat/internal/query"
	"docuchat/internal/ranking"
	"docuchat/internal/storage"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API provides hybrid retrieval (semantic + lexical) over pre-indexed
// document chunks, with named configuration profiles that tune fusion
// weights, thresholds and context assembly.
//
// swagger:meta

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	ctx := context.Background()

	// Profile registry with built-in seed profiles
	profileRepo := storage.NewProfileRepo(db)
	if err := profileRepo.SeedBuiltins(ctx); err != nil {
		log.Fatalf("Failed to seed built-in profiles: %v", err)
	}
	slog.Info("Profile registry ready")

	chunkRepo := storage.NewChunkRepo(db)

	// Qdrant-backed semantic search primitive
	semanticStore, err := chunkstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantCollection)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	if err := semanticStore.EnsureCollection(ctx, cfg.QdrantVectorSize); err != nil {
		log.Fatalf("Failed to ensure Qdrant collection: %v", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	// Validate embedding client vector size (fail-fast)
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	testEmbedding, err := embedder.EmbedText(ctx, "test")
	if err != nil {
		log.Fatalf("Failed to validate embedding client: %v", err)
	}
	if len(testEmbedding) != cfg.QdrantVectorSize {
		log.Fatalf("Embedding vector size mismatch: expected %d, got %d", cfg.QdrantVectorSize, len(testEmbedding))
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	// Ranking engine over the two store primitives
	engine := ranking.NewEngine(semanticStore, chunkRepo, chunkRepo, ranking.Options{
		Locale:           cfg.LexicalLocale,
		DegradeToLexical: cfg.EmbedFailureMode == "lexical",
	})
	slog.Info("Ranking engine initialized", "locale", cfg.LexicalLocale, "embed_failure_mode", cfg.EmbedFailureMode)

	// LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName)

	// Query façade
	queryEngine := query.NewEngine(
		embedder,
		engine,
		assembler.New(nil),
		profileRepo,
		llmClient,
		query.EmbedFailureMode(cfg.EmbedFailureMode),
	)
	slog.Info("Query engine initialized")

	// Create router with dependencies
	deps := &http.Deps{
		Registry:    profileRepo,
		QueryEngine: queryEngine,
		Health:      semanticStore,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
