package ports

import (
	"context"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
)

// QueryService is the inbound entry point for a single query turn.
// When stream is true, Query returns a non-nil event channel and a nil
// Answer; the final SynthesisComplete event carries the Answer.
type QueryService interface {
	Query(ctx context.Context, sessionID, userType, utterance string, stream bool) (*domain.Answer, <-chan domain.SynthesisEvent, error)
}

// DocumentIngestor is the inbound entry point for uploading a new
// tourism offer document.
type DocumentIngestor interface {
	Ingest(ctx context.Context, filename, mimeType string, body []byte) (*domain.Document, error)
}

// DocumentProcessor drives one document through extraction, chunking,
// enrichment, embedding, and indexing. Invoked by the ingestion worker.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// SessionAdmin exposes session lifecycle operations outside the query
// pipeline itself: explicit reset, and reading back the filters
// currently in play for a session.
type SessionAdmin interface {
	CreateSession(ctx context.Context, userType string) (string, error)
	ResetSession(ctx context.Context, sessionID string) error
	ActiveFilters(ctx context.Context, sessionID string) (domain.StructuredFilters, error)
}

// DocumentReader exposes read-only document/chunk lookups for the agent
// dashboard surface.
type DocumentReader interface {
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error)
}
