package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"docuchat/internal/chunkstore"
	"docuchat/internal/service"
)

// ChunkStore defines read access to stored chunks. Chunk rows are owned by
// the external ingestion pipeline; Insert exists for that pipeline and for
// test fixtures.
type ChunkStore interface {
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ChunkRecord, error)
	// Insert inserts a single chunk. The chunk.ID must be set before calling.
	Insert(ctx context.Context, chunk *ChunkRecord) error
}

// ChunkRepo provides chunk lookups and the FTS5-backed lexical search
// primitive. It implements the ChunkStore interface and
// chunkstore.LexicalSearcher.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert inserts a single chunk into the database.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *ChunkRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chunks (id, document_id, document_title, heading, page, position, text) VALUES (?, ?, ?, ?, ?, ?, ?)",
		chunk.ID, chunk.DocumentID, chunk.DocumentTitle, chunk.Heading, chunk.Page, chunk.Position, chunk.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRecord, error) {
	var chunk ChunkRecord
	err := r.db.QueryRowContext(ctx,
		"SELECT id, document_id, document_title, heading, page, position, text FROM chunks WHERE id = ?",
		id,
	).Scan(&chunk.ID, &chunk.DocumentID, &chunk.DocumentTitle, &chunk.Heading, &chunk.Page, &chunk.Position, &chunk.Text)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chunk %q: %w", id, service.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}

	return &chunk, nil
}

// LexicalSearch runs the keyword relevance primitive: tokenize the query,
// match against the FTS index and rank with bm25. Chunks with no match are
// absent from the result. An empty or untokenizable query matches nothing.
//
// bm25() in SQLite returns more-negative values for better matches, so the
// score is negated to get the non-negative higher-is-better rank the fusion
// layer expects.
func (r *ChunkRepo) LexicalSearch(ctx context.Context, queryText, locale string) ([]chunkstore.ScoredChunk, error) {
	match := buildMatchQuery(queryText, locale)
	if match == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, -bm25(chunks_fts) AS rank
		 FROM chunks_fts
		 JOIN chunks c ON c.rowid = chunks_fts.rowid
		 WHERE chunks_fts MATCH ?
		 ORDER BY rank DESC`,
		match,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run lexical search: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []chunkstore.ScoredChunk
	for rows.Next() {
		var sc chunkstore.ScoredChunk
		if err := rows.Scan(&sc.ChunkID, &sc.Score); err != nil {
			return nil, fmt.Errorf("failed to scan lexical result: %w", err)
		}
		if sc.Score < 0 {
			sc.Score = 0
		}
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return results, nil
}

// buildMatchQuery turns raw query text into an FTS5 OR-query of quoted
// tokens. The locale selects query-side normalization; the stored index uses
// the locale-agnostic unicode61 tokenizer.
func buildMatchQuery(queryText, locale string) string {
	tokens := tokenizeQuery(queryText, locale)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

func tokenizeQuery(text, locale string) []string {
	if locale == "he" {
		text = stripNiqqud(text)
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// stripNiqqud removes Hebrew vowel points and cantillation marks so pointed
// and unpointed spellings of the same word match.
func stripNiqqud(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r >= 0x0591 && r <= 0x05C7 {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
