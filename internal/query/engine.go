package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docuchat/internal/assembler"
	"docuchat/internal/contextutil"
	"docuchat/internal/llm"
	"docuchat/internal/ranking"
	"docuchat/internal/service"
	"docuchat/internal/storage"
)

// Embedder obtains a query embedding from the external embedding provider.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Chatter produces an answer from an assembled prompt. Implemented by
// llm.Client.
type Chatter interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// EmbedFailureMode decides what a failed embedding call does to the request.
type EmbedFailureMode string

const (
	// EmbedFailureFail fails the request with an upstream error.
	EmbedFailureFail EmbedFailureMode = "fail"
	// EmbedFailureLexical degrades to lexical-only ranking.
	EmbedFailureLexical EmbedFailureMode = "lexical"
)

// Response is the full query result. Every field except Answer is produced by
// this core; Answer comes from the external LLM collaborator.
type Response struct {
	Query         string  `json:"query"`
	Answer        string  `json:"answer"`
	ResponseTime  int64   `json:"responseTime"`
	SourcesFound  int     `json:"sourcesFound"`
	Chunks        int     `json:"chunks"`
	SearchMethod  string  `json:"searchMethod"`
	ChunkText     string  `json:"chunkText"`
	Similarity    float64 `json:"similarity"`
	DocumentTitle string  `json:"documentTitle"`
}

// Engine is the query façade: embed, rank under the active profile, assemble
// context, generate an answer.
type Engine interface {
	Query(ctx context.Context, question string) (Response, error)
}

type queryEngine struct {
	embedder    Embedder
	ranker      *ranking.Engine
	assembler   *assembler.Assembler
	registry    storage.ProfileRegistry
	chat        Chatter
	failureMode EmbedFailureMode
}

// NewEngine creates a query engine. failureMode must match the ranking
// engine's degrade setting; both come from the same configuration key.
func NewEngine(
	embedder Embedder,
	ranker *ranking.Engine,
	asm *assembler.Assembler,
	registry storage.ProfileRegistry,
	chat Chatter,
	failureMode EmbedFailureMode,
) Engine {
	return &queryEngine{
		embedder:    embedder,
		ranker:      ranker,
		assembler:   asm,
		registry:    registry,
		chat:        chat,
		failureMode: failureMode,
	}
}

const systemPrompt = "You are a helpful assistant that answers questions based on the provided context " +
	"from the user's documents. Answer using only the information from the context below. If the context " +
	"doesn't contain enough information to answer the question, say so. Cite document titles when possible."

const noResultsAnswer = "I couldn't find any relevant information in the indexed documents to answer this question."

func (e *queryEngine) Query(ctx context.Context, question string) (Response, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	if strings.TrimSpace(question) == "" {
		return Response{}, &service.ValidationError{Field: "query", Message: "query text is required"}
	}

	active, err := e.registry.GetActive(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("failed to resolve active profile: %w", err)
	}
	logger.InfoContext(ctx, "query started", "question_length", len(question), "profile", active.ID)

	var vector []float32
	vector, err = e.embedder.EmbedText(ctx, question)
	if err != nil {
		if e.failureMode != EmbedFailureLexical {
			return Response{}, fmt.Errorf("failed to embed query: %w: %w", service.ErrUpstream, err)
		}
		// Degrading is an explicit configuration choice, never silent.
		logger.WarnContext(ctx, "embedding provider failed, degrading to lexical-only ranking", "error", err)
		vector = nil
	}

	results, method, err := e.ranker.Rank(ctx, question, vector, active.Config)
	if err != nil {
		return Response{}, err
	}

	assembled := e.assembler.Assemble(results, active.Config.MaxContextTokens, active.Config.TargetTokensPerChunk)

	resp := Response{
		Query:        question,
		SourcesFound: assembled.SourcesFound,
		Chunks:       assembled.Chunks,
		SearchMethod: string(method),
	}
	if len(results) > 0 {
		top := results[0]
		resp.ChunkText = top.Text
		resp.Similarity = top.CombinedScore
		resp.DocumentTitle = top.DocumentTitle
	}

	if assembled.Chunks == 0 {
		resp.Answer = noResultsAnswer
		resp.ResponseTime = time.Since(start).Milliseconds()
		logger.InfoContext(ctx, "query completed without results", "response_time_ms", resp.ResponseTime)
		return resp, nil
	}

	answer, err := e.chat.ChatWithMessages(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserMessage(question, assembled.Text)},
	}, llm.ChatParams{
		Model:       active.Config.ModelName,
		Temperature: active.Config.Temperature,
	})
	if err != nil {
		return Response{}, fmt.Errorf("failed to get LLM response: %w: %w", service.ErrUpstream, err)
	}

	resp.Answer = answer
	resp.ResponseTime = time.Since(start).Milliseconds()
	logger.InfoContext(ctx, "query completed",
		"method", method,
		"chunks", resp.Chunks,
		"sources_found", resp.SourcesFound,
		"response_time_ms", resp.ResponseTime,
	)
	return resp, nil
}

func buildUserMessage(question, contextText string) string {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\n--- Context from documents ---\n\n")
	b.WriteString(contextText)
	b.WriteString("--- End Context ---")
	return b.String()
}
