package usecase

import (
	"context"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
)

// DocumentUseCase exposes read-only document/chunk lookups for the
// agent dashboard surface — supplements spec.md with the reference
// document_detail_service.py's chunk-lookup-behind-a-citation operation.
type DocumentUseCase struct {
	repo     ports.DocumentRepository
	vectorDB ports.VectorStore
}

func NewDocumentUseCase(repo ports.DocumentRepository, vectorDB ports.VectorStore) *DocumentUseCase {
	return &DocumentUseCase{repo: repo, vectorDB: vectorDB}
}

func (uc *DocumentUseCase) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *DocumentUseCase) GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	return uc.vectorDB.GetChunk(ctx, chunkID)
}
