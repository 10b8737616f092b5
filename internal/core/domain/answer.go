package domain

// StructuredFilters is the closed-schema output of the self-query parser:
// an explicit hard filter candidate plus soft signals the retriever uses
// for post-penalty scoring.
type StructuredFilters struct {
	Destination    string     `json:"destination,omitempty"`
	Category       Category   `json:"category,omitempty"`
	TravelMonth    string     `json:"travel_month,omitempty"`
	PriceRange     PriceRange `json:"price_range,omitempty"`
	PriceMax       float64    `json:"price_max,omitempty"`
	DurationDays   int        `json:"duration_days,omitempty"`
	FamilyFriendly *bool      `json:"family_friendly,omitempty"`
	Intent         string     `json:"intent,omitempty"` // search, recommendation, comparison, information, booking
	Confidence     float64    `json:"confidence,omitempty"`
}

// HardFilterField names which single field, per the priority hierarchy,
// was chosen as the hard equality filter sent to the vector store.
type HardFilterField string

const (
	HardFilterDestination  HardFilterField = "destination"
	HardFilterTravelMonth  HardFilterField = "travel_month"
	HardFilterCategory     HardFilterField = "category"
	HardFilterPriceRange   HardFilterField = "price_range"
	HardFilterNone         HardFilterField = ""
)

// ScoredChunk is a Chunk carried through retrieval with its similarity
// score, post-penalty adjusted score, and a trace of which penalties
// fired (used by tests and observability, not shown to the user).
type ScoredChunk struct {
	Chunk         Chunk    `json:"chunk"`
	Similarity    float64  `json:"similarity"`
	AdjustedScore float64  `json:"adjusted_score"`
	PenaltyTrace  []string `json:"penalty_trace,omitempty"`
}

// SourceCitation is the user-facing reference to a chunk that grounded
// part of the synthesized answer.
type SourceCitation struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

type SuggestedFollowup struct {
	Text string `json:"text"`
}

// Answer is the final grounded response to a query turn.
type Answer struct {
	Text        string              `json:"text"`
	Sources     []SourceCitation    `json:"sources"`
	Followups   []SuggestedFollowup `json:"followups,omitempty"`
	Filters     StructuredFilters   `json:"filters"`
	Confidence  float64             `json:"confidence"`
	NoContext   bool                `json:"no_context,omitempty"`
}

// SynthesisEventKind tags the variant of a streaming synthesis event.
type SynthesisEventKind string

const (
	SynthesisContent  SynthesisEventKind = "content"
	SynthesisComplete SynthesisEventKind = "complete"
	SynthesisError    SynthesisEventKind = "error"
)

// SynthesisEvent is one item of the answer synthesizer's uniform,
// lazily-produced event stream — either a text delta, the terminal
// answer, or a terminal error. Exactly one of Complete/Err is set on
// SynthesisComplete/SynthesisError respectively.
type SynthesisEvent struct {
	Kind     SynthesisEventKind
	Text     string
	Complete *Answer
	Err      error
}
