package domain

import "testing"

func TestSessionMergeEntitiesStickyOverwritesSameField(t *testing.T) {
	s := &Session{ID: "s-1"}
	s.TurnCount = 1
	s.MergeEntities([]EntityMapEntry{{Field: "destination", Value: "Greece", Kind: EntityKindSticky}})
	s.TurnCount = 2
	s.MergeEntities([]EntityMapEntry{{Field: "destination", Value: "Turkey", Kind: EntityKindSticky}})

	if len(s.Entities) != 1 {
		t.Fatalf("expected a single destination entry after overwrite, got %d", len(s.Entities))
	}
	if s.Entities[0].Value != "Turkey" {
		t.Fatalf("expected destination overwritten to Turkey, got %s", s.Entities[0].Value)
	}
}

func TestSessionMergeEntitiesDistinctFieldsCoexist(t *testing.T) {
	s := &Session{ID: "s-1"}
	s.MergeEntities([]EntityMapEntry{{Field: "destination", Value: "Greece", Kind: EntityKindSticky}})
	s.MergeEntities([]EntityMapEntry{{Field: "price_max", Value: "500", Kind: EntityKindSticky}})

	view := s.ActiveView()
	if len(view.Entries) != 2 {
		t.Fatalf("expected both destination and price_max in the active view, got %d", len(view.Entries))
	}
}

func TestSessionAgeAndEvictDropsStaleStickyEntity(t *testing.T) {
	s := &Session{ID: "s-1"}
	s.MergeEntities([]EntityMapEntry{{Field: "category", Value: "hotel", Kind: EntityKindSticky}})

	for i := 0; i < entityEvictionThreshold; i++ {
		s.AgeAndEvict(map[string]bool{})
	}

	if len(s.Entities) != 0 {
		t.Fatalf("expected category entity evicted after %d unmentioned turns, still have %d entries", entityEvictionThreshold, len(s.Entities))
	}
}

func TestSessionAgeAndEvictKeepsTouchedEntity(t *testing.T) {
	s := &Session{ID: "s-1"}
	s.MergeEntities([]EntityMapEntry{{Field: "destination", Value: "Greece", Kind: EntityKindSticky}})

	for i := 0; i < entityEvictionThreshold+2; i++ {
		s.AgeAndEvict(map[string]bool{"destination": true})
	}

	if len(s.Entities) != 1 {
		t.Fatalf("expected destination to survive repeated re-mention, got %d entries", len(s.Entities))
	}
}

func TestSessionAgeAndEvictExpiresSingletonAfterOneUnmentionedTurn(t *testing.T) {
	s := &Session{ID: "s-1"}
	s.MergeEntities([]EntityMapEntry{{Field: "compare_to", Value: "Greece", Kind: EntityKindSingleton}})

	s.AgeAndEvict(map[string]bool{})

	if len(s.Entities) != 0 {
		t.Fatalf("expected singleton entity to expire after a single unmentioned turn, got %d entries", len(s.Entities))
	}
}

func TestSessionActiveViewExcludesSingletons(t *testing.T) {
	s := &Session{ID: "s-1"}
	s.MergeEntities([]EntityMapEntry{
		{Field: "destination", Value: "Greece", Kind: EntityKindSticky},
		{Field: "compare_to", Value: "Turkey", Kind: EntityKindSingleton},
	})

	view := s.ActiveView()
	if len(view.Entries) != 1 || view.Entries[0].Field != "destination" {
		t.Fatalf("expected ActiveView to expose only the sticky entry, got %+v", view.Entries)
	}
}

func TestSessionAppendTurnEvictsRingWithoutTouchingEntities(t *testing.T) {
	s := &Session{ID: "s-1"}
	for i := 0; i < recentTurnRingSize+2; i++ {
		s.AppendTurn(RecentTurn{Utterance: "turn"})
	}

	if len(s.RecentTurns) != recentTurnRingSize {
		t.Fatalf("expected ring capped at %d, got %d", recentTurnRingSize, len(s.RecentTurns))
	}
	if s.TurnCount != recentTurnRingSize+2 {
		t.Fatalf("expected TurnCount to track every appended turn, got %d", s.TurnCount)
	}
}
