package storage

// ChunkRecord is a stored document chunk: identity, display metadata and the
// indexed text. Chunks are created and deleted by the ingestion pipeline only;
// this core reads them.
type ChunkRecord struct {
	ID            string // stable chunk id (UUID, shared with the vector store point id)
	DocumentID    string
	DocumentTitle string
	Heading       string // section/header label within the document
	Page          int
	Position      int // chunk index within the document
	Text          string
}

// DeleteOutcome reports what Delete actually did to a profile.
type DeleteOutcome string

const (
	// OutcomeDeleted means the profile row was removed permanently (customs only).
	OutcomeDeleted DeleteOutcome = "deleted"
	// OutcomeHidden means a built-in profile was hidden rather than erased.
	OutcomeHidden DeleteOutcome = "hidden"
)
