package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/observability/metrics"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeVectorStore struct {
	searchFilter  *ports.HardFilter
	searchResults []domain.ScoredChunk
	searchErr     error
	lexical       []domain.ScoredChunk
	fallback      []domain.ScoredChunk
	fallbackCalls int
}

func (f *fakeVectorStore) IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, queryVector []float32, limit int, filter *ports.HardFilter) ([]domain.ScoredChunk, error) {
	if filter == nil {
		f.fallbackCalls++
		if f.fallback != nil {
			return f.fallback, nil
		}
		return f.searchResults, f.searchErr
	}
	f.searchFilter = filter
	return f.searchResults, f.searchErr
}

func (f *fakeVectorStore) SearchLexical(ctx context.Context, query string, limit int, filter *ports.HardFilter) ([]domain.ScoredChunk, error) {
	return f.lexical, nil
}

func (f *fakeVectorStore) DeleteDocument(ctx context.Context, documentID string) error { return nil }

func (f *fakeVectorStore) Stats(ctx context.Context) (ports.VectorStoreStats, error) {
	return ports.VectorStoreStats{}, nil
}

func (f *fakeVectorStore) GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	return nil, nil
}

func newRetriever(vs *fakeVectorStore, emb *fakeEmbedder) *Retriever {
	return NewRetriever(vs, emb, nil, metrics.NewHTTPServerMetrics("test"), "test", RetrievalConfig{})
}

func TestSelectHardFilterFollowsPriorityHierarchy(t *testing.T) {
	filters := domain.StructuredFilters{
		Destination: "grcka",
		TravelMonth: "july",
		Category:    domain.CategoryHotel,
		PriceRange:  domain.PriceBudget,
	}
	hard, field := selectHardFilter(filters)
	if field != domain.HardFilterDestination {
		t.Fatalf("expected destination to win the priority hierarchy, got %s", field)
	}
	if hard.Value != "grcka" {
		t.Fatalf("expected hard filter value grcka, got %s", hard.Value)
	}

	filters.Destination = ""
	hard, field = selectHardFilter(filters)
	if field != domain.HardFilterTravelMonth || hard.Value != "july" {
		t.Fatalf("expected travel_month to win once destination is absent, got %s/%s", field, hard.Value)
	}

	filters.TravelMonth = ""
	hard, field = selectHardFilter(filters)
	if field != domain.HardFilterCategory {
		t.Fatalf("expected category to win once destination and month are absent, got %s", field)
	}

	filters.Category = ""
	hard, field = selectHardFilter(filters)
	if field != domain.HardFilterPriceRange {
		t.Fatalf("expected price_range to win as the last resort, got %s", field)
	}

	filters.PriceRange = ""
	hard, field = selectHardFilter(filters)
	if field != domain.HardFilterNone || hard != nil {
		t.Fatalf("expected no hard filter when nothing is set, got %s/%v", field, hard)
	}
}

func TestRetrieveSendsDestinationAsHardFilter(t *testing.T) {
	chunk := domain.ScoredChunk{Chunk: domain.Chunk{ID: "c1"}, Similarity: 0.9}
	vs := &fakeVectorStore{searchResults: []domain.ScoredChunk{chunk, chunk, chunk, chunk}}
	r := newRetriever(vs, &fakeEmbedder{vector: []float32{0.1}})

	_, err := r.Retrieve(context.Background(), "grcka leto", domain.StructuredFilters{Destination: "grcka"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vs.searchFilter == nil || vs.searchFilter.Field != domain.HardFilterDestination {
		t.Fatalf("expected the search call to carry a destination hard filter, got %+v", vs.searchFilter)
	}
}

func TestApplyPenaltiesMonotonicOnPriceOvershoot(t *testing.T) {
	filters := domain.StructuredFilters{PriceMax: 200}
	near := domain.ScoredChunk{Similarity: 1.0, Chunk: domain.Chunk{Metadata: domain.EnrichedMetadata{PriceMin: 220}}}
	far := domain.ScoredChunk{Similarity: 1.0, Chunk: domain.Chunk{Metadata: domain.EnrichedMetadata{PriceMin: 400}}}

	nearScore, _ := applyPenalties(near, filters, domain.HardFilterNone)
	farScore, _ := applyPenalties(far, filters, domain.HardFilterNone)

	if farScore > nearScore {
		t.Fatalf("expected a larger price overshoot to score no higher than a smaller one: near=%f far=%f", nearScore, farScore)
	}
}

func TestApplyPenaltiesMonotonicOnMonthDistance(t *testing.T) {
	filters := domain.StructuredFilters{TravelMonth: "july"}
	adjacent := domain.ScoredChunk{Similarity: 1.0, Chunk: domain.Chunk{Metadata: domain.EnrichedMetadata{TravelMonth: "june"}}}
	distant := domain.ScoredChunk{Similarity: 1.0, Chunk: domain.Chunk{Metadata: domain.EnrichedMetadata{TravelMonth: "december"}}}

	adjacentScore, adjacentTrace := applyPenalties(adjacent, filters, domain.HardFilterNone)
	distantScore, distantTrace := applyPenalties(distant, filters, domain.HardFilterNone)

	if distantScore > adjacentScore {
		t.Fatalf("expected a non-adjacent month to score no higher than an adjacent one: adjacent=%f distant=%f", adjacentScore, distantScore)
	}
	if len(adjacentTrace) == 0 || len(distantTrace) == 0 {
		t.Fatalf("expected both mismatches to leave a penalty trace")
	}
}

func TestApplyPenaltiesSkipsFieldEnforcedByHardFilter(t *testing.T) {
	filters := domain.StructuredFilters{Category: domain.CategoryHotel}
	sc := domain.ScoredChunk{Similarity: 1.0, Chunk: domain.Chunk{Metadata: domain.EnrichedMetadata{Category: domain.CategoryTour}}}

	score, trace := applyPenalties(sc, filters, domain.HardFilterCategory)
	if score != 1.0 || len(trace) != 0 {
		t.Fatalf("expected no category penalty once category is already the hard filter, got score=%f trace=%v", score, trace)
	}
}

func TestRetrieveFallsBackToNoHardFilterBelowThreshold(t *testing.T) {
	scored := domain.ScoredChunk{Chunk: domain.Chunk{ID: "c1"}, Similarity: 0.8}
	vs := &fakeVectorStore{
		searchResults: []domain.ScoredChunk{scored},
		fallback:      []domain.ScoredChunk{scored, scored, scored, scored},
	}
	r := newRetriever(vs, &fakeEmbedder{vector: []float32{0.1}})

	results, err := r.Retrieve(context.Background(), "query", domain.StructuredFilters{Destination: "grcka"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vs.fallbackCalls == 0 {
		t.Fatalf("expected a fallback search with no hard filter below the threshold")
	}
	if len(results) == 0 {
		t.Fatalf("expected the fallback results to be returned")
	}
}
