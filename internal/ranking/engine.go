package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"docuchat/internal/chunkstore"
	"docuchat/internal/contextutil"
	"docuchat/internal/profile"
	"docuchat/internal/service"
	"docuchat/internal/storage"
)

// Engine fuses the semantic and lexical retrieval primitives into one ranked
// result set per query. It is stateless and safe for concurrent use.
type Engine struct {
	semantic chunkstore.SemanticSearcher
	lexical  chunkstore.LexicalSearcher
	chunks   storage.ChunkStore
	opts     Options
}

// Options tunes engine behavior that is deployment configuration rather than
// per-profile tuning.
type Options struct {
	// Locale is passed to the lexical search primitive for query tokenization.
	Locale string
	// DegradeToLexical controls what happens when the query embedding is
	// unavailable: rank on lexical matches alone when true, fail the request
	// when false. Silent zero-scoring is never an option.
	DegradeToLexical bool
}

// NewEngine creates a ranking engine over the two store primitives. The chunk
// store hydrates result rows with text and document metadata.
func NewEngine(semantic chunkstore.SemanticSearcher, lexical chunkstore.LexicalSearcher, chunks storage.ChunkStore, opts Options) *Engine {
	return &Engine{
		semantic: semantic,
		lexical:  lexical,
		chunks:   chunks,
		opts:     opts,
	}
}

type fusedRow struct {
	chunkID  string
	semantic float64
	lexical  float64
	combined float64
}

// Rank scores the corpus against the query and returns the fused, filtered,
// ordered and truncated result set.
//
// The two passes run unfiltered and independently, then outer-join on chunk
// id with the missing side defaulting to zero. A row survives iff its
// semantic score exceeds the profile threshold OR it has any lexical match,
// deliberately not a combined-score threshold: a chunk may surface on lexical
// grounds alone even with a very low semantic score, and vice versa. Ordering
// is by combined score descending with chunk id ascending as the tie-break,
// so identical inputs always produce identical output.
func (e *Engine) Rank(ctx context.Context, queryText string, queryVector []float32, cfg profile.Config) ([]RankedResult, Method, error) {
	logger := contextutil.LoggerFromContext(ctx)

	hasSemantic := len(queryVector) > 0
	if !hasSemantic && !e.opts.DegradeToLexical {
		return nil, "", fmt.Errorf("query embedding unavailable: %w", service.ErrUpstream)
	}

	rows := make(map[string]*fusedRow)

	if hasSemantic {
		semantic, err := e.semantic.SemanticSearch(ctx, queryVector)
		if err != nil {
			return nil, "", fmt.Errorf("semantic search failed: %w: %w", service.ErrUpstream, err)
		}
		for _, sc := range semantic {
			rows[sc.ChunkID] = &fusedRow{chunkID: sc.ChunkID, semantic: sc.Score}
		}
	}

	lexical, err := e.lexical.LexicalSearch(ctx, queryText, e.opts.Locale)
	if err != nil {
		return nil, "", fmt.Errorf("lexical search failed: %w: %w", service.ErrUpstream, err)
	}
	for _, sc := range lexical {
		if row, ok := rows[sc.ChunkID]; ok {
			row.lexical = sc.Score
		} else {
			rows[sc.ChunkID] = &fusedRow{chunkID: sc.ChunkID, lexical: sc.Score}
		}
	}

	method := MethodHybrid
	switch {
	case !hasSemantic:
		method = MethodLexical
	case len(lexical) == 0:
		method = MethodSemantic
	}

	// Filter and score. When the embedding is absent the semantic branch of
	// the OR is disabled entirely: an uncomputed score is not a real zero
	// measured against the threshold.
	survivors := make([]*fusedRow, 0, len(rows))
	for _, row := range rows {
		keep := row.lexical > 0
		if hasSemantic && row.semantic > cfg.SimilarityThreshold {
			keep = true
		}
		if !keep {
			continue
		}
		row.combined = row.semantic*cfg.SemanticWeight + row.lexical*cfg.LexicalWeight
		survivors = append(survivors, row)
	}

	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].combined != survivors[j].combined {
			return survivors[i].combined > survivors[j].combined
		}
		return survivors[i].chunkID < survivors[j].chunkID
	})

	if cfg.MaxChunks > 0 && len(survivors) > cfg.MaxChunks {
		survivors = survivors[:cfg.MaxChunks]
	}

	results := make([]RankedResult, 0, len(survivors))
	for _, row := range survivors {
		chunk, err := e.chunks.GetByID(ctx, row.chunkID)
		if errors.Is(err, service.ErrNotFound) {
			// Index and chunk table briefly diverge while the ingestion
			// pipeline rewrites a document.
			logger.WarnContext(ctx, "ranked chunk missing from chunk store", "chunk_id", row.chunkID)
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to load chunk %s: %w", row.chunkID, err)
		}
		results = append(results, RankedResult{
			ChunkID:       chunk.ID,
			DocumentID:    chunk.DocumentID,
			DocumentTitle: chunk.DocumentTitle,
			Heading:       chunk.Heading,
			Page:          chunk.Page,
			Position:      chunk.Position,
			Text:          chunk.Text,
			SemanticScore: row.semantic,
			LexicalScore:  row.lexical,
			CombinedScore: row.combined,
		})
	}

	logger.InfoContext(ctx, "ranking completed",
		"method", method,
		"candidates", len(rows),
		"survivors", len(survivors),
		"results", len(results),
	)
	return results, method, nil
}
