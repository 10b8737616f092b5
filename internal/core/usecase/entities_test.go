package usecase

import (
	"testing"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
)

func TestExtractRuleBasedDetectsLetovanjaAsTourCategory(t *testing.T) {
	entries := extractRuleBased("koja letovanja imaš u avgustu")
	var category string
	for _, e := range entries {
		if e.Field == "category" {
			category = e.Value
		}
	}
	if category != string(domain.CategoryTour) {
		t.Fatalf("expected letovanja to trigger category=tour, got %q from %+v", category, entries)
	}
}

func TestMatchCategoryPriorityTourOverHotel(t *testing.T) {
	category, ok := matchCategory("hotel sa turom i izletima")
	if !ok || category != domain.CategoryTour {
		t.Fatalf("expected tour to win over hotel when both match, got %s (ok=%v)", category, ok)
	}
}

func TestMatchCategoryPriorityRestaurantOverHotel(t *testing.T) {
	category, ok := matchCategory("hotel sa restoranom u prizemlju")
	if !ok || category != domain.CategoryRestaurant {
		t.Fatalf("expected restaurant to win over hotel when both match, got %s (ok=%v)", category, ok)
	}
}

func TestMatchCategoryNoEvidenceReturnsFalse(t *testing.T) {
	if _, ok := matchCategory("lepo vreme za setnju"); ok {
		t.Fatalf("expected no category match without tourism keywords")
	}
}
