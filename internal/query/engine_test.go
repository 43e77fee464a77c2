package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"docuchat/internal/assembler"
	"docuchat/internal/chunkstore"
	"docuchat/internal/llm"
	"docuchat/internal/profile"
	"docuchat/internal/ranking"
	"docuchat/internal/service"
	"docuchat/internal/storage"
	"docuchat/internal/storage/mocks"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

type fakeChatter struct {
	answer string
	err    error
	calls  int
	params llm.ChatParams
	msgs   []llm.Message
}

func (f *fakeChatter) ChatWithMessages(_ context.Context, messages []llm.Message, params llm.ChatParams) (string, error) {
	f.calls++
	f.msgs = messages
	f.params = params
	return f.answer, f.err
}

type fakeSemantic struct {
	results []chunkstore.ScoredChunk
}

func (f *fakeSemantic) SemanticSearch(context.Context, []float32) ([]chunkstore.ScoredChunk, error) {
	return f.results, nil
}

type fakeLexical struct {
	results []chunkstore.ScoredChunk
}

func (f *fakeLexical) LexicalSearch(context.Context, string, string) ([]chunkstore.ScoredChunk, error) {
	return f.results, nil
}

type fakeChunks map[string]*storage.ChunkRecord

func (f fakeChunks) GetByID(_ context.Context, id string) (*storage.ChunkRecord, error) {
	if c, ok := f[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("chunk %q: %w", id, service.ErrNotFound)
}

func (f fakeChunks) Insert(context.Context, *storage.ChunkRecord) error { return nil }

func activeProfile() *profile.Profile {
	return &profile.Profile{
		ID:       "balanced",
		Name:     "Balanced",
		IsActive: true,
		Config: profile.Config{
			SimilarityThreshold:  0.7,
			MaxChunks:            5,
			SemanticWeight:       0.6,
			LexicalWeight:        0.4,
			Temperature:          0.3,
			ModelName:            "gpt-4o-mini",
			MaxContextTokens:     3000,
			TargetTokensPerChunk: 600,
		},
	}
}

type engineFixture struct {
	embedder *fakeEmbedder
	chat     *fakeChatter
	registry *mocks.MockProfileRegistry
}

func newEngineFixture(t *testing.T, semantic []chunkstore.ScoredChunk, lexical []chunkstore.ScoredChunk, chunks fakeChunks, mode EmbedFailureMode) (Engine, *engineFixture) {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &engineFixture{
		embedder: &fakeEmbedder{vector: []float32{0.1, 0.2}},
		chat:     &fakeChatter{answer: "the answer"},
		registry: mocks.NewMockProfileRegistry(ctrl),
	}
	ranker := ranking.NewEngine(
		&fakeSemantic{results: semantic},
		&fakeLexical{results: lexical},
		chunks,
		ranking.Options{Locale: "he", DegradeToLexical: mode == EmbedFailureLexical},
	)
	engine := NewEngine(f.embedder, ranker, assembler.New(nil), f.registry, f.chat, mode)
	return engine, f
}

func TestQuery_EndToEnd(t *testing.T) {
	chunks := fakeChunks{
		"c1": {ID: "c1", DocumentID: "d1", DocumentTitle: "Handbook", Heading: "Leave", Page: 4, Text: "Employees accrue twenty vacation days."},
		"c2": {ID: "c2", DocumentID: "d1", DocumentTitle: "Handbook", Heading: "Sick leave", Page: 5, Text: "Sick leave needs a note."},
	}
	engine, f := newEngineFixture(t,
		[]chunkstore.ScoredChunk{{ChunkID: "c1", Score: 0.9}, {ChunkID: "c2", Score: 0.75}},
		[]chunkstore.ScoredChunk{{ChunkID: "c1", Score: 1.2}},
		chunks, EmbedFailureFail)
	f.registry.EXPECT().GetActive(gomock.Any()).Return(activeProfile(), nil)

	resp, err := engine.Query(context.Background(), "How many vacation days?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if resp.Answer != "the answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.SearchMethod != string(ranking.MethodHybrid) {
		t.Errorf("searchMethod = %q, want hybrid", resp.SearchMethod)
	}
	if resp.SourcesFound != 2 || resp.Chunks != 2 {
		t.Errorf("sourcesFound/chunks = %d/%d, want 2/2", resp.SourcesFound, resp.Chunks)
	}
	if resp.DocumentTitle != "Handbook" || resp.ChunkText == "" {
		t.Errorf("top-chunk provenance missing: %+v", resp)
	}

	// Generation parameters come from the active profile.
	if f.chat.params.Model != "gpt-4o-mini" || f.chat.params.Temperature != 0.3 {
		t.Errorf("chat params = %+v", f.chat.params)
	}
	if len(f.chat.msgs) != 2 || f.chat.msgs[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", f.chat.msgs)
	}
	userMsg := f.chat.msgs[1].Content
	if !strings.Contains(userMsg, "How many vacation days?") || !strings.Contains(userMsg, "twenty vacation days") {
		t.Errorf("user message missing question or context: %q", userMsg)
	}
}

func TestQuery_EmptyQuestion(t *testing.T) {
	engine, f := newEngineFixture(t, nil, nil, fakeChunks{}, EmbedFailureFail)

	_, err := engine.Query(context.Background(), "   ")
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if f.embedder.calls != 0 {
		t.Error("embedder called for an empty question")
	}
}

func TestQuery_NoResultsSkipsLLM(t *testing.T) {
	engine, f := newEngineFixture(t, nil, nil, fakeChunks{}, EmbedFailureFail)
	f.registry.EXPECT().GetActive(gomock.Any()).Return(activeProfile(), nil)

	resp, err := engine.Query(context.Background(), "anything relevant?")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if f.chat.calls != 0 {
		t.Error("LLM called despite empty context")
	}
	if resp.Answer != noResultsAnswer {
		t.Errorf("answer = %q, want the canned no-results answer", resp.Answer)
	}
	if resp.Chunks != 0 || resp.SourcesFound != 0 {
		t.Errorf("chunks/sourcesFound = %d/%d, want 0/0", resp.Chunks, resp.SourcesFound)
	}
}

func TestQuery_EmbeddingFailureFailsByDefault(t *testing.T) {
	engine, f := newEngineFixture(t, nil, []chunkstore.ScoredChunk{{ChunkID: "c1", Score: 2}}, fakeChunks{}, EmbedFailureFail)
	f.registry.EXPECT().GetActive(gomock.Any()).Return(activeProfile(), nil)
	f.embedder.vector = nil
	f.embedder.err = errors.New("connection refused")

	_, err := engine.Query(context.Background(), "q")
	if !errors.Is(err, service.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}

func TestQuery_EmbeddingFailureDegradesToLexical(t *testing.T) {
	chunks := fakeChunks{
		"c1": {ID: "c1", DocumentID: "d1", DocumentTitle: "Handbook", Text: "keyword match"},
	}
	engine, f := newEngineFixture(t, nil, []chunkstore.ScoredChunk{{ChunkID: "c1", Score: 2}}, chunks, EmbedFailureLexical)
	f.registry.EXPECT().GetActive(gomock.Any()).Return(activeProfile(), nil)
	f.embedder.vector = nil
	f.embedder.err = errors.New("connection refused")

	resp, err := engine.Query(context.Background(), "keyword")
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if resp.SearchMethod != string(ranking.MethodLexical) {
		t.Errorf("searchMethod = %q, want lexical", resp.SearchMethod)
	}
	if resp.Chunks != 1 {
		t.Errorf("chunks = %d, want 1", resp.Chunks)
	}
}

func TestQuery_RegistryIntegrityFaultPropagates(t *testing.T) {
	engine, f := newEngineFixture(t, nil, nil, fakeChunks{}, EmbedFailureFail)
	f.registry.EXPECT().GetActive(gomock.Any()).
		Return(nil, fmt.Errorf("no active profile: %w", service.ErrIntegrity))

	_, err := engine.Query(context.Background(), "q")
	if !errors.Is(err, service.ErrIntegrity) {
		t.Fatalf("error = %v, want ErrIntegrity", err)
	}
}

func TestQuery_LLMFailureIsUpstream(t *testing.T) {
	chunks := fakeChunks{
		"c1": {ID: "c1", DocumentTitle: "Handbook", Text: "some context"},
	}
	engine, f := newEngineFixture(t,
		[]chunkstore.ScoredChunk{{ChunkID: "c1", Score: 0.95}}, nil, chunks, EmbedFailureFail)
	f.registry.EXPECT().GetActive(gomock.Any()).Return(activeProfile(), nil)
	f.chat.err = errors.New("model overloaded")

	_, err := engine.Query(context.Background(), "q")
	if !errors.Is(err, service.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}
