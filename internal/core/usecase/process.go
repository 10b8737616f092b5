package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/chunking"
)

// ProcessUseCase drives one uploaded document through extraction,
// windowing, per-chunk enrichment, embedding, and indexing — the
// teacher's ProcessDocumentUseCase pipeline shape, generalized from a
// single document-level classification to a per-chunk EnrichedMetadata
// pass.
type ProcessUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	extractor ports.DocumentExtractor
	splitter  *chunking.Splitter
	enricher  *Enricher
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
}

func NewProcessUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.DocumentExtractor,
	splitter *chunking.Splitter,
	enricher *Enricher,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
) *ProcessUseCase {
	return &ProcessUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		splitter:  splitter,
		enricher:  enricher,
		embedder:  embedder,
		vectorDB:  vectorDB,
	}
}

func (uc *ProcessUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, 0, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	chunkCount, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, 0, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusReady, chunkCount, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessUseCase) processPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	body, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return 0, fmt.Errorf("open document body: %w", err)
	}

	pages, err := uc.extractor.Extract(ctx, doc.Filename, body)
	if err != nil {
		return 0, fmt.Errorf("extract document: %w", err)
	}
	if len(pages) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract document", errors.New("no pages extracted"))
	}

	segments := uc.splitter.SplitPages(pages)
	if len(segments) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("windowing produced zero chunks"))
	}

	chunks := make([]domain.Chunk, 0, len(segments))
	texts := make([]string, 0, len(segments))
	for i, seg := range segments {
		meta := uc.enricher.Enrich(ctx, doc.Filename, seg.Text)
		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(doc.Filename, i, seg.Text),
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			ChunkIndex: i,
			Text:       seg.Text,
			IsTable:    seg.IsTable,
			Metadata:   meta,
		})
		texts = append(texts, seg.Text)
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, domain.WrapError(domain.ErrInvalidInput, "embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)))
	}

	if err := uc.vectorDB.IndexChunks(ctx, chunks, vectors); err != nil {
		return 0, fmt.Errorf("index chunks in vector db: %w", err)
	}

	return len(chunks), nil
}
