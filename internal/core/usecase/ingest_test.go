package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
)

type fakeObjectStorage struct {
	saved map[string][]byte
	err   error
}

func (f *fakeObjectStorage) Save(ctx context.Context, key string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[key] = data
	return nil
}

func (f *fakeObjectStorage) Open(ctx context.Context, key string) ([]byte, error) {
	return f.saved[key], nil
}

type fakeDocumentRepository struct {
	created []*domain.Document
	err     error
}

func (f *fakeDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, doc)
	return nil
}

func (f *fakeDocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, chunkCount int, errMsg string) error {
	return nil
}

func (f *fakeDocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	for _, d := range f.created {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, domain.ErrDocumentNotFound
}

type fakeMessageQueue struct {
	published []string
	err       error
}

func (f *fakeMessageQueue) PublishDocumentUploaded(ctx context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *fakeMessageQueue) SubscribeDocumentUploaded(ctx context.Context, handler func(ctx context.Context, documentID string) error) error {
	return nil
}

func TestIngestSavesUploadsMetadataAndPublishesEvent(t *testing.T) {
	storage := &fakeObjectStorage{}
	repo := &fakeDocumentRepository{}
	queue := &fakeMessageQueue{}
	uc := NewIngestUseCase(repo, storage, queue)

	doc, err := uc.Ingest(context.Background(), "Grcka Ponuda.pdf", "application/pdf", []byte("body"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected status uploaded, got %s", doc.Status)
	}
	if _, ok := storage.saved[doc.StoragePath]; !ok {
		t.Fatalf("expected the document bytes to be saved under %s", doc.StoragePath)
	}
	if len(repo.created) != 1 || repo.created[0].ID != doc.ID {
		t.Fatalf("expected the document metadata row to be created")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("expected an ingestion event published for the new document")
	}
}

func TestIngestSanitizesFilenameInStorageKey(t *testing.T) {
	storage := &fakeObjectStorage{}
	uc := NewIngestUseCase(&fakeDocumentRepository{}, storage, &fakeMessageQueue{})

	doc, err := uc.Ingest(context.Background(), "../secret Ponuda (2).pdf", "application/pdf", []byte("x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(doc.StoragePath, "..") || strings.Contains(doc.StoragePath, "/") {
		t.Fatalf("expected a sanitized storage key with no path traversal, got %s", doc.StoragePath)
	}
	if strings.Contains(doc.StoragePath, " ") || strings.Contains(doc.StoragePath, "(") {
		t.Fatalf("expected spaces and parens stripped from the storage key, got %s", doc.StoragePath)
	}
}

func TestIngestReturnsErrorWhenStorageFails(t *testing.T) {
	storage := &fakeObjectStorage{err: errors.New("bucket unavailable")}
	repo := &fakeDocumentRepository{}
	queue := &fakeMessageQueue{}
	uc := NewIngestUseCase(repo, storage, queue)

	_, err := uc.Ingest(context.Background(), "offer.pdf", "application/pdf", []byte("body"))
	if err == nil || !strings.Contains(err.Error(), "save to object storage") {
		t.Fatalf("expected a wrapped object storage error, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no metadata row created once storage fails")
	}
}

func TestIngestReturnsErrorWhenEventPublishFails(t *testing.T) {
	storage := &fakeObjectStorage{}
	repo := &fakeDocumentRepository{}
	queue := &fakeMessageQueue{err: errors.New("broker down")}
	uc := NewIngestUseCase(repo, storage, queue)

	doc, err := uc.Ingest(context.Background(), "offer.pdf", "application/pdf", []byte("body"))
	if err == nil || !strings.Contains(err.Error(), "publish ingestion event") {
		t.Fatalf("expected a wrapped publish error, got %v", err)
	}
	if doc != nil {
		t.Fatalf("expected no document returned when publish fails")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected the metadata row to have been created before the publish step")
	}
}
