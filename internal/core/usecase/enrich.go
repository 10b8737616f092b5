package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/gazetteer"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/llm/ollama"
)

// chunkID derives a deterministic chunk identifier so re-ingesting the
// same document produces the same identifiers and upserts overwrite
// prior entries rather than duplicating them.
func chunkID(sourceFile string, ordinal int, text string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%s", sourceFile, ordinal, text)))
	return hex.EncodeToString(sum[:])[:24]
}

// Enricher issues one chat-completion call per chunk to produce
// EnrichedMetadata, then applies deterministic filename/text overrides
// and a post-parse validator.
type Enricher struct {
	completer ports.ChatCompleter
}

func NewEnricher(completer ports.ChatCompleter) *Enricher {
	return &Enricher{completer: completer}
}

// Enrich never returns an error: a failed or invalid-JSON call still
// yields a zero-confidence, all-absent EnrichedMetadata so the chunk
// remains indexable by vector similarity alone.
func (e *Enricher) Enrich(ctx context.Context, filename, text string) domain.EnrichedMetadata {
	meta := domain.EnrichedMetadata{}

	raw, err := e.completer.CompleteJSON(ctx, ollama.BuildEnrichmentPrompt(text, filename))
	if err == nil {
		if parsed, parseErr := parseEnrichmentJSON(raw); parseErr == nil {
			meta = parsed
		}
	}

	applyDeterministicOverrides(&meta, filename, text)
	validateMetadata(&meta)
	return meta
}

type enrichmentPayload struct {
	Destination     string   `json:"destination"`
	Category        string   `json:"category"`
	Subcategory     string   `json:"subcategory"`
	PriceMin        float64  `json:"price_min"`
	PriceMax        float64  `json:"price_max"`
	DurationDays    int      `json:"duration_days"`
	TransportType   string   `json:"transport_type"`
	TravelMonth     string   `json:"travel_month"`
	Season          string   `json:"season"`
	FamilyFriendly  *bool    `json:"family_friendly"`
	Amenities       []string `json:"amenities"`
	ConfidenceScore float64  `json:"confidence_score"`
}

func parseEnrichmentJSON(raw string) (domain.EnrichedMetadata, error) {
	var payload enrichmentPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.EnrichedMetadata{}, fmt.Errorf("parse enrichment json: %w", err)
	}
	return domain.EnrichedMetadata{
		Destination:     payload.Destination,
		Category:        domain.Category(payload.Category),
		Subcategory:     payload.Subcategory,
		PriceMin:        payload.PriceMin,
		PriceMax:        payload.PriceMax,
		DurationDays:    payload.DurationDays,
		TransportType:   domain.TransportType(payload.TransportType),
		TravelMonth:     payload.TravelMonth,
		Season:          domain.Season(payload.Season),
		FamilyFriendly:  payload.FamilyFriendly,
		Amenities:       payload.Amenities,
		ConfidenceScore: payload.ConfidenceScore,
	}, nil
}

// applyDeterministicOverrides fires regardless of model output: a
// filename-based destination heuristic when the model produced none or
// a weak one, and marker-based category overrides that resolve the
// frequency bias plain-text tokens like "hotel" introduce.
func applyDeterministicOverrides(meta *domain.EnrichedMetadata, filename, text string) {
	lowerFile := strings.ToLower(filename)
	lowerText := strings.ToLower(text)

	if meta.Destination == "" || meta.ConfidenceScore < 0.6 {
		if dest, ok := gazetteer.CanonicalDestination(lowerFile); ok {
			meta.Destination = dest
		}
	}

	// Applied lowest-priority-first so a higher-priority marker present in
	// the same text wins the final assignment (tour ≻ restaurant).
	if strings.Contains(lowerText, "meni") || strings.Contains(lowerText, "menu") {
		meta.Category = domain.CategoryRestaurant
	}
	if strings.Contains(lowerText, "aranžman") || strings.Contains(lowerText, "aranzman") {
		meta.Category = domain.CategoryTour
	}
}

// validateMetadata discards unknown enum values back to absent and
// enforces price_min <= price_max, then derives the coarse price band.
func validateMetadata(meta *domain.EnrichedMetadata) {
	if !meta.Category.Valid() {
		meta.Category = domain.CategoryUnknown
	}
	switch meta.TransportType {
	case domain.TransportAir, domain.TransportBus, domain.TransportCar, domain.TransportTrain, domain.TransportMixed:
	default:
		meta.TransportType = domain.TransportNone
	}
	switch meta.Season {
	case domain.SeasonYearRound, domain.SeasonSpring, domain.SeasonSummer, domain.SeasonAutumn, domain.SeasonWinter:
	default:
		meta.Season = domain.SeasonNone
	}
	if meta.PriceMin > meta.PriceMax {
		meta.PriceMin, meta.PriceMax = meta.PriceMax, meta.PriceMin
	}
	meta.PriceRange = domain.PriceRangeFromMax(meta.PriceMax)
	if meta.ConfidenceScore < 0 {
		meta.ConfidenceScore = 0
	}
	if meta.ConfidenceScore > 1 {
		meta.ConfidenceScore = 1
	}
}
