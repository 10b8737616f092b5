package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirillkom/personal-ai-assistant/internal/cache"
	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/observability/metrics"
)

// RetrievalConfig tunes the retriever's fetch width and fallback point.
type RetrievalConfig struct {
	TopK                int // final result count, typically 5-10
	CandidateMultiplier int // over-fetch factor, 3-5x TopK
	FallbackThreshold   int // T: re-issue with no hard filter below this count
}

func defaultedConfig(cfg RetrievalConfig) RetrievalConfig {
	if cfg.TopK <= 0 {
		cfg.TopK = 8
	}
	if cfg.CandidateMultiplier <= 0 {
		cfg.CandidateMultiplier = 4
	}
	if cfg.FallbackThreshold <= 0 {
		cfg.FallbackThreshold = 3
	}
	return cfg
}

// Retriever implements the filter-priority-hierarchy + weighted
// post-scoring design: one field goes to the vector store as a hard
// equality filter, the rest become soft multiplicative penalties
// applied after the similarity search returns.
type Retriever struct {
	vectorDB     ports.VectorStore
	embedder     ports.Embedder
	vectorCache  *cache.Vectors
	metrics      *metrics.HTTPServerMetrics
	service      string
	cfg          RetrievalConfig
}

func NewRetriever(vectorDB ports.VectorStore, embedder ports.Embedder, vectorCache *cache.Vectors, m *metrics.HTTPServerMetrics, service string, cfg RetrievalConfig) *Retriever {
	return &Retriever{
		vectorDB:    vectorDB,
		embedder:    embedder,
		vectorCache: vectorCache,
		metrics:     m,
		service:     service,
		cfg:         defaultedConfig(cfg),
	}
}

// monthOrder gives every canonical month a position for adjacency checks
// (December and January are adjacent, wrapping around the year).
var monthOrder = map[string]int{
	"january": 0, "february": 1, "march": 2, "april": 3, "may": 4, "june": 5,
	"july": 6, "august": 7, "september": 8, "october": 9, "november": 10, "december": 11,
}

func monthsAdjacent(a, b string) bool {
	ai, aok := monthOrder[a]
	bi, bok := monthOrder[b]
	if !aok || !bok {
		return false
	}
	diff := ai - bi
	if diff < 0 {
		diff = -diff
	}
	return diff == 1 || diff == 11
}

// Retrieve embeds the expanded query, selects the hard filter per the
// priority hierarchy (destination > travel_month > category >
// price_range > none), issues an over-fetched similarity search, and
// applies weighted post-retrieval penalties for every filter field the
// hard filter didn't already enforce.
func (r *Retriever) Retrieve(ctx context.Context, expandedQuery string, filters domain.StructuredFilters) ([]domain.ScoredChunk, error) {
	vector, err := r.embedQuery(ctx, expandedQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hardFilter, hardField := selectHardFilter(filters)
	r.metrics.RecordHardFilterField(r.service, string(hardField))

	fetchLimit := r.cfg.TopK * r.cfg.CandidateMultiplier
	candidates, err := r.vectorDB.Search(ctx, vector, fetchLimit, hardFilter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	if len(candidates) < r.cfg.FallbackThreshold {
		r.metrics.RecordFallbackRetry(r.service)
		fallback, err := r.vectorDB.Search(ctx, vector, fetchLimit, nil)
		if err == nil && len(fallback) > len(candidates) {
			candidates = fuseLexical(fallback, r.lexicalCandidates(ctx, expandedQuery, fetchLimit))
			hardField = domain.HardFilterNone
		} else {
			candidates = fuseLexical(candidates, r.lexicalCandidates(ctx, expandedQuery, fetchLimit))
		}
	}

	for i := range candidates {
		candidates[i].AdjustedScore, candidates[i].PenaltyTrace = applyPenalties(candidates[i], filters, hardField)
	}
	for _, sc := range candidates {
		for _, p := range sc.PenaltyTrace {
			r.metrics.RecordPenalty(r.service, p)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].AdjustedScore > candidates[j].AdjustedScore
	})
	if len(candidates) > r.cfg.TopK {
		candidates = candidates[:r.cfg.TopK]
	}
	return candidates, nil
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if v, ok := r.vectorCache.Get(query); ok {
		return v, nil
	}
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	r.vectorCache.Add(query, vector)
	return vector, nil
}

// lexicalCandidates fetches the sparse-vector fallback set, swallowing
// errors — lexical fusion is an enrichment of the degradation path, not
// a hard dependency of it.
func (r *Retriever) lexicalCandidates(ctx context.Context, query string, limit int) []domain.ScoredChunk {
	lexical, err := r.vectorDB.SearchLexical(ctx, query, limit, nil)
	if err != nil {
		return nil
	}
	return lexical
}

// fuseLexical merges a semantic result set with a lexical one via
// Reciprocal Rank Fusion, deduplicating by chunk ID.
func fuseLexical(semantic, lexical []domain.ScoredChunk) []domain.ScoredChunk {
	if len(lexical) == 0 {
		return semantic
	}
	const rrfK = 60
	scores := make(map[string]float64)
	chunks := make(map[string]domain.ScoredChunk)
	for rank, sc := range semantic {
		scores[sc.Chunk.ID] += 1.0 / float64(rrfK+rank+1)
		chunks[sc.Chunk.ID] = sc
	}
	for rank, sc := range lexical {
		scores[sc.Chunk.ID] += 1.0 / float64(rrfK+rank+1)
		if _, ok := chunks[sc.Chunk.ID]; !ok {
			chunks[sc.Chunk.ID] = sc
		}
	}
	fused := make([]domain.ScoredChunk, 0, len(chunks))
	for id, sc := range chunks {
		sc.Similarity = scores[id]
		fused = append(fused, sc)
	}
	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Similarity > fused[j].Similarity })
	return fused
}

func selectHardFilter(filters domain.StructuredFilters) (*ports.HardFilter, domain.HardFilterField) {
	switch {
	case filters.Destination != "":
		return &ports.HardFilter{Field: domain.HardFilterDestination, Value: filters.Destination}, domain.HardFilterDestination
	case filters.TravelMonth != "":
		return &ports.HardFilter{Field: domain.HardFilterTravelMonth, Value: filters.TravelMonth}, domain.HardFilterTravelMonth
	case filters.Category != "":
		return &ports.HardFilter{Field: domain.HardFilterCategory, Value: string(filters.Category)}, domain.HardFilterCategory
	case filters.PriceRange != "":
		return &ports.HardFilter{Field: domain.HardFilterPriceRange, Value: string(filters.PriceRange)}, domain.HardFilterPriceRange
	default:
		return nil, domain.HardFilterNone
	}
}

// applyPenalties multiplies the candidate's base similarity by every
// soft penalty fired for filter fields the hard filter did not already
// enforce, returning the adjusted score and a trace of fired penalties.
func applyPenalties(sc domain.ScoredChunk, filters domain.StructuredFilters, hardField domain.HardFilterField) (float64, []string) {
	score := sc.Similarity
	var trace []string
	meta := sc.Chunk.Metadata

	if filters.PriceMax > 0 && meta.PriceMin > filters.PriceMax {
		overshoot := (meta.PriceMin - filters.PriceMax) / filters.PriceMax
		mult := 1 - 0.2*overshoot
		if mult < 0.5 {
			mult = 0.5
		}
		score *= mult
		trace = append(trace, "price_max")
	}

	if hardField != domain.HardFilterTravelMonth && filters.TravelMonth != "" && meta.TravelMonth != "" && meta.TravelMonth != filters.TravelMonth {
		if monthsAdjacent(meta.TravelMonth, filters.TravelMonth) {
			score *= 0.7
			trace = append(trace, "travel_month_adjacent")
		} else {
			score *= 0.4
			trace = append(trace, "travel_month_nonadjacent")
		}
	}

	if filters.DurationDays > 0 && meta.DurationDays > 0 && meta.DurationDays != filters.DurationDays {
		ratio := float64(meta.DurationDays-filters.DurationDays) / float64(filters.DurationDays)
		if ratio < 0 {
			ratio = -ratio
		}
		if ratio > 0.5 {
			ratio = 0.5
		}
		score *= 1 - ratio
		trace = append(trace, "duration")
	}

	if hardField != domain.HardFilterCategory && filters.Category != "" && meta.Category != "" && meta.Category != filters.Category {
		score *= 0.7
		trace = append(trace, "category")
	}

	if filters.FamilyFriendly != nil && meta.FamilyFriendly != nil && *meta.FamilyFriendly != *filters.FamilyFriendly {
		score *= 0.6
		trace = append(trace, "family_friendly")
	}

	if score < 0 {
		score = 0
	}
	return score, trace
}
