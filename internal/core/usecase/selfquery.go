package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/gazetteer"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/llm/ollama"
)

// SelfQueryParser extracts a structured filter set from the (already
// rewritten) query text. Explicit filters found here override the
// implicit filters the rewriter seeded from session context.
type SelfQueryParser struct {
	completer ports.ChatCompleter
}

func NewSelfQueryParser(completer ports.ChatCompleter) *SelfQueryParser {
	return &SelfQueryParser{completer: completer}
}

type selfQueryPayload struct {
	Destination    string  `json:"destination"`
	Category       string  `json:"category"`
	TravelMonth    string  `json:"travel_month"`
	PriceMax       float64 `json:"price_max"`
	DurationDays   int     `json:"duration_days"`
	FamilyFriendly *bool   `json:"family_friendly"`
	Intent         string  `json:"intent"`
	Confidence     float64 `json:"confidence"`
}

// Parse merges explicit filters extracted from the query text over the
// implicit filters carried from session context — a field present in
// both is decided by the explicit value, since the user just stated it.
func (p *SelfQueryParser) Parse(ctx context.Context, query string, implicit domain.StructuredFilters) domain.StructuredFilters {
	merged := implicit

	raw, err := p.completer.CompleteJSON(ctx, ollama.BuildSelfQueryPrompt(query))
	if err != nil {
		return merged
	}
	var payload selfQueryPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return merged
	}

	if payload.Destination != "" {
		if canon, ok := gazetteer.CanonicalDestination(strings.ToLower(payload.Destination)); ok {
			merged.Destination = canon
		} else {
			merged.Destination = payload.Destination
		}
	}
	if category := domain.Category(payload.Category); category.Valid() && category != domain.CategoryUnknown {
		merged.Category = category
	}
	if payload.TravelMonth != "" {
		merged.TravelMonth = strings.ToLower(payload.TravelMonth)
	}
	if payload.PriceMax > 0 {
		merged.PriceMax = payload.PriceMax
		merged.PriceRange = domain.PriceRangeFromMax(payload.PriceMax)
	}
	if payload.DurationDays > 0 {
		merged.DurationDays = payload.DurationDays
	}
	if payload.FamilyFriendly != nil {
		merged.FamilyFriendly = payload.FamilyFriendly
	}
	if payload.Intent != "" {
		merged.Intent = payload.Intent
	}
	merged.Confidence = payload.Confidence
	return merged
}
