package usecase

import (
	"testing"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
)

func TestApplyDeterministicOverridesMenuMarkerSetsRestaurant(t *testing.T) {
	meta := domain.EnrichedMetadata{Category: domain.CategoryHotel}
	applyDeterministicOverrides(&meta, "ponuda.pdf", "Pogledajte naš meni sa jelima dana")
	if meta.Category != domain.CategoryRestaurant {
		t.Fatalf("expected the menu marker to override category to restaurant, got %s", meta.Category)
	}
}

func TestApplyDeterministicOverridesAranzmanOutranksMenu(t *testing.T) {
	meta := domain.EnrichedMetadata{}
	applyDeterministicOverrides(&meta, "ponuda.pdf", "Aranžman uključuje meni na brodu tokom krstarenja")
	if meta.Category != domain.CategoryTour {
		t.Fatalf("expected aranžman to outrank the menu marker per the priority invariant, got %s", meta.Category)
	}
}

func TestValidateMetadataResetsUnknownTransportAndSeason(t *testing.T) {
	meta := domain.EnrichedMetadata{TransportType: "own_transport", Season: "autumn_break", PriceMax: 500}
	validateMetadata(&meta)
	if meta.TransportType != domain.TransportNone {
		t.Fatalf("expected an out-of-schema transport type to reset to none, got %s", meta.TransportType)
	}
	if meta.Season != domain.SeasonNone {
		t.Fatalf("expected an out-of-schema season to reset to none, got %s", meta.Season)
	}
	if meta.PriceRange != domain.PriceModerate {
		t.Fatalf("expected price_max=500 to collapse to moderate, got %s", meta.PriceRange)
	}
}

func TestValidateMetadataSwapsInvertedPriceBounds(t *testing.T) {
	meta := domain.EnrichedMetadata{PriceMin: 400, PriceMax: 100}
	validateMetadata(&meta)
	if meta.PriceMin != 100 || meta.PriceMax != 400 {
		t.Fatalf("expected inverted price bounds to be swapped, got min=%v max=%v", meta.PriceMin, meta.PriceMax)
	}
}
