package ranking

// RankedResult is one fused retrieval result. Ephemeral: produced per query,
// never persisted.
type RankedResult struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	Heading       string  `json:"heading"`
	Page          int     `json:"page"`
	Position      int     `json:"position"`
	Text          string  `json:"text"`
	SemanticScore float64 `json:"semantic_score"`
	LexicalScore  float64 `json:"lexical_score"`
	CombinedScore float64 `json:"combined_score"`
}

// Method names the retrieval passes that contributed to a ranking.
type Method string

const (
	MethodHybrid   Method = "hybrid"
	MethodSemantic Method = "semantic"
	MethodLexical  Method = "lexical"
)
