package domain

import "time"

// RecentTurn is one verbatim exchange kept in the short-term ring buffer.
type RecentTurn struct {
	Utterance      string    `json:"utterance"`
	RewrittenQuery string    `json:"rewritten_query,omitempty"`
	AnswerText     string    `json:"answer_text,omitempty"`
	Filters        StructuredFilters `json:"filters,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// EntityKind distinguishes entities that persist until overwritten
// ("sticky", e.g. destination) from ones that apply to a single turn only
// ("singleton", e.g. a one-off comparison target).
type EntityKind string

const (
	EntityKindSticky    EntityKind = "sticky"
	EntityKindSingleton EntityKind = "singleton"
)

// EntityMapEntry is one long-term fact remembered about the session,
// merged into the EntityMap on the turn it is extracted.
type EntityMapEntry struct {
	Field        string     `json:"field"` // destination, price_range, travel_month, category, ...
	Value        string     `json:"value"`
	Kind         EntityKind `json:"kind"`
	LastMentioned int       `json:"last_mentioned_turn"`
	UnmentionedFor int      `json:"unmentioned_for"`
}

// ActiveEntityView is the subset of the EntityMap currently considered
// "in play" for pronoun/reference resolution — the sticky entries not
// yet evicted; singleton entries are not included.
type ActiveEntityView struct {
	Entries []EntityMapEntry `json:"entries"`
}

// entityEvictionThreshold is the number of consecutive turns an entity can
// go unmentioned before it is dropped from the EntityMap entirely.
const entityEvictionThreshold = 5

// Session is the full per-conversation memory: a short verbatim ring of
// the last N turns plus a long-term entity map.
type Session struct {
	ID          string           `json:"id"`
	UserType    string           `json:"user_type,omitempty"`
	RecentTurns []RecentTurn     `json:"recent_turns"`
	Entities    []EntityMapEntry `json:"entities"`
	TurnCount   int              `json:"turn_count"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

const recentTurnRingSize = 3

// AppendTurn pushes a new turn onto the verbatim ring, dropping the
// oldest turn once the ring exceeds its fixed size. Entity extraction is
// merged into the long-term map separately, at extraction time each
// turn (see MergeEntities) — the ring only ever holds raw turn text.
func (s *Session) AppendTurn(turn RecentTurn) {
	s.RecentTurns = append(s.RecentTurns, turn)
	s.TurnCount++
	if len(s.RecentTurns) > recentTurnRingSize {
		s.RecentTurns = s.RecentTurns[1:]
	}
}

// MergeEntities applies this turn's freshly extracted entities to the
// long-term EntityMap under the §4.3 sticky/singleton merge rule. Called
// once per turn, immediately after extraction, so that entity state
// (and therefore ActiveView/implicit filters) is available starting on
// the very next turn rather than only after a turn ages out of the ring.
func (s *Session) MergeEntities(fresh []EntityMapEntry) {
	s.mergeEntities(fresh)
}

// mergeEntities applies the sticky/singleton merge rule: a sticky field
// overwrites any prior value for the same field name and resets its
// unmentioned counter; a singleton field is appended and expires after
// one turn if not reinforced.
func (s *Session) mergeEntities(fresh []EntityMapEntry) {
	for _, e := range fresh {
		e.UnmentionedFor = 0
		e.LastMentioned = s.TurnCount
		if e.Kind == EntityKindSticky {
			replaced := false
			for i := range s.Entities {
				if s.Entities[i].Field == e.Field && s.Entities[i].Kind == EntityKindSticky {
					s.Entities[i] = e
					replaced = true
					break
				}
			}
			if !replaced {
				s.Entities = append(s.Entities, e)
			}
			continue
		}
		s.Entities = append(s.Entities, e)
	}
}

// AgeAndEvict increments the unmentioned counter for every entity not
// present in the touched set this turn, and drops entities that have gone
// stale past the eviction threshold.
func (s *Session) AgeAndEvict(touchedFields map[string]bool) {
	kept := s.Entities[:0]
	for _, e := range s.Entities {
		if !touchedFields[e.Field] {
			e.UnmentionedFor++
		} else {
			e.UnmentionedFor = 0
		}
		if e.Kind == EntityKindSingleton && e.UnmentionedFor >= 1 {
			continue
		}
		if e.UnmentionedFor >= entityEvictionThreshold {
			continue
		}
		kept = append(kept, e)
	}
	s.Entities = kept
}

// ActiveView returns the entities eligible for pronoun/reference
// resolution on the current turn: every sticky entry still tracked.
func (s *Session) ActiveView() ActiveEntityView {
	view := ActiveEntityView{}
	for _, e := range s.Entities {
		if e.Kind == EntityKindSticky {
			view.Entries = append(view.Entries, e)
		}
	}
	return view
}
