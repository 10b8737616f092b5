package usecase

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/gazetteer"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/llm/ollama"
)

// EntityExtractor is the two-stage entity extractor: fast rule-based
// patterns first, then an LLM pass over whatever the rules missed.
// Rule-based results always win on a same-field conflict — rules are
// exact on the input, the LLM is asked only for what rules missed.
type EntityExtractor struct {
	completer ports.ChatCompleter
}

func NewEntityExtractor(completer ports.ChatCompleter) *EntityExtractor {
	return &EntityExtractor{completer: completer}
}

var amountPattern = regexp.MustCompile(`(?i)(\d{2,5})\s*(eur|€|evra|evra?|din|dinara)?`)

func (e *EntityExtractor) Extract(ctx context.Context, message string, recent []domain.RecentTurn) []domain.EntityMapEntry {
	entries := extractRuleBased(message)
	seen := fieldSet(entries)

	residual := e.extractLLM(ctx, message, recent)
	for _, entry := range residual {
		if seen[entry.Field] {
			continue
		}
		entries = append(entries, entry)
		seen[entry.Field] = true
	}
	return entries
}

func fieldSet(entries []domain.EntityMapEntry) map[string]bool {
	set := make(map[string]bool, len(entries))
	for _, e := range entries {
		set[e.Field] = true
	}
	return set
}

// extractRuleBased runs the gazetteer destination lookup, the month
// declension table, an amount+currency regex, and a tourism-keyword
// category match — grounded in named_entity_extractor.py's
// _extract_destination/_extract_budget/_extract_dates methods.
func extractRuleBased(message string) []domain.EntityMapEntry {
	lower := strings.ToLower(message)
	var entries []domain.EntityMapEntry

	if dest, ok := gazetteer.CanonicalDestination(lower); ok {
		entries = append(entries, domain.EntityMapEntry{Field: "destination", Value: dest, Kind: domain.EntityKindSticky})
	}

	for phrase, month := range gazetteer.MonthCanonical {
		if strings.Contains(lower, phrase) {
			entries = append(entries, domain.EntityMapEntry{Field: "travel_month", Value: month, Kind: domain.EntityKindSticky})
			break
		}
	}

	if m := amountPattern.FindStringSubmatch(lower); len(m) > 0 {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			entries = append(entries, domain.EntityMapEntry{Field: "price_max", Value: strconv.Itoa(v), Kind: domain.EntityKindSticky})
		}
	}

	if category, ok := matchCategory(lower); ok {
		entries = append(entries, domain.EntityMapEntry{Field: "category", Value: string(category), Kind: domain.EntityKindSticky})
	}

	return entries
}

// categoryPriority mirrors the closed category set's priority invariant
// (tour ≻ restaurant ≻ hotel ≻ attraction): when a message's keywords
// match more than one category concept, the higher-priority one wins
// deterministically instead of depending on Go's randomized map order.
var categoryPriority = []string{"tour", "restaurant", "hotel", "attraction"}

func matchCategory(lower string) (domain.Category, bool) {
	for _, concept := range categoryPriority {
		for _, w := range gazetteer.TourismKeywords[concept] {
			if strings.Contains(lower, w) {
				category, _ := conceptToCategory(concept)
				return category, true
			}
		}
	}
	return domain.CategoryUnknown, false
}

func conceptToCategory(concept string) (domain.Category, bool) {
	switch concept {
	case "tour":
		return domain.CategoryTour, true
	case "restaurant":
		return domain.CategoryRestaurant, true
	case "hotel":
		return domain.CategoryHotel, true
	case "attraction":
		return domain.CategoryAttraction, true
	default:
		return domain.CategoryUnknown, false
	}
}

type llmEntityPayload struct {
	Destination    string `json:"destination"`
	PriceMax       int    `json:"price_max"`
	TravelMonth    string `json:"travel_month"`
	Category       string `json:"category"`
	DurationDays   int    `json:"duration_days"`
	FamilyFriendly *bool  `json:"family_friendly"`
}

// extractLLM asks the model for residual entities, explicitly forbidden
// to invent values absent from the text. Any error or invalid JSON is
// treated as "nothing found" — the rule-based stage already covers the
// exact-match cases this pass is meant to supplement.
func (e *EntityExtractor) extractLLM(ctx context.Context, message string, recent []domain.RecentTurn) []domain.EntityMapEntry {
	raw, err := e.completer.CompleteJSON(ctx, ollama.BuildEntityExtractionPrompt(message, recent))
	if err != nil {
		return nil
	}
	var payload llmEntityPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	var entries []domain.EntityMapEntry
	if payload.Destination != "" {
		entries = append(entries, domain.EntityMapEntry{Field: "destination", Value: payload.Destination, Kind: domain.EntityKindSticky})
	}
	if payload.PriceMax > 0 {
		entries = append(entries, domain.EntityMapEntry{Field: "price_max", Value: strconv.Itoa(payload.PriceMax), Kind: domain.EntityKindSticky})
	}
	if payload.TravelMonth != "" {
		entries = append(entries, domain.EntityMapEntry{Field: "travel_month", Value: payload.TravelMonth, Kind: domain.EntityKindSticky})
	}
	if payload.Category != "" {
		entries = append(entries, domain.EntityMapEntry{Field: "category", Value: payload.Category, Kind: domain.EntityKindSticky})
	}
	if payload.DurationDays > 0 {
		entries = append(entries, domain.EntityMapEntry{Field: "duration_days", Value: strconv.Itoa(payload.DurationDays), Kind: domain.EntityKindSticky})
	}
	if payload.FamilyFriendly != nil {
		v := "false"
		if *payload.FamilyFriendly {
			v = "true"
		}
		entries = append(entries, domain.EntityMapEntry{Field: "family_friendly", Value: v, Kind: domain.EntityKindSticky})
	}
	return entries
}
