package chunkstore

import "context"

// ScoredChunk pairs a chunk id with a relevance score from one retrieval
// primitive.
type ScoredChunk struct {
	ChunkID string
	Score   float64
}

// SemanticSearcher is the vector-similarity primitive of the external chunk
// store. Scores are cosine similarities in [0,1] over the entire corpus; no
// threshold filtering happens at this layer.
type SemanticSearcher interface {
	SemanticSearch(ctx context.Context, queryVector []float32) ([]ScoredChunk, error)
}

// LexicalSearcher is the keyword-relevance primitive of the external chunk
// store. Non-matching chunks are absent from the result; scores are
// non-negative, higher is better. Tokenization is locale-aware.
type LexicalSearcher interface {
	LexicalSearch(ctx context.Context, queryText, locale string) ([]ScoredChunk, error)
}
