package ports

import (
	"context"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
)

// Embedder produces vector embeddings for text, batched for ingestion or
// single-shot for a query.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatCompleter is the LLM chat-completion provider used by every
// stage that needs natural-language reasoning: enrichment, rewriting,
// self-query parsing, expansion, entity extraction, and synthesis.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteJSON(ctx context.Context, prompt string) (string, error)
	Stream(ctx context.Context, prompt string) (<-chan string, <-chan error)
}

// HardFilter is a single equality filter applied at the vector store,
// chosen by the retriever's field-priority hierarchy.
type HardFilter struct {
	Field domain.HardFilterField
	Value string
}

// VectorStore is the semantic (and, for the lexical fallback path,
// sparse) vector index over indexed chunks.
type VectorStore interface {
	IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, filter *HardFilter) ([]domain.ScoredChunk, error)
	SearchLexical(ctx context.Context, query string, limit int, filter *HardFilter) ([]domain.ScoredChunk, error)
	DeleteDocument(ctx context.Context, documentID string) error
	Stats(ctx context.Context) (VectorStoreStats, error)
	GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error)
}

type VectorStoreStats struct {
	ChunkCount   int
	Destinations []string
	Categories   []string
}

// PDFPage is one page of extracted PDF content.
type PDFPage struct {
	Number int
	Text   string
	Tables [][]string // each table serialized as pipe-joined rows
}

// DocumentExtractor pulls text and tables out of a raw tourism offer PDF.
type DocumentExtractor interface {
	Extract(ctx context.Context, filename string, body []byte) ([]PDFPage, error)
}

// ObjectStorage persists raw uploaded document bytes.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) ([]byte, error)
}

// DocumentRepository tracks ingestion status for uploaded documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, chunkCount int, errMsg string) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// MessageQueue delivers async ingestion events to worker processes.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(ctx context.Context, documentID string) error) error
}

// SessionStore persists session memory across turns.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, sessionID string) error
	ListExpired(ctx context.Context, olderThanTurns int) ([]string, error)
}

