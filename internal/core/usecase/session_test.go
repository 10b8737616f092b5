package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
)

type fakeSessionStore struct {
	sessions map[string]*domain.Session
	loadErr  error
	saveErr  error
	expired  []string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if s, ok := f.sessions[sessionID]; ok {
		return s, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (f *fakeSessionStore) Save(ctx context.Context, session *domain.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.sessions[session.ID] = session
	return nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, sessionID string) error {
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeSessionStore) ListExpired(ctx context.Context, olderThanTurns int) ([]string, error) {
	return f.expired, nil
}

func TestSessionUseCaseLoadCreatesEmptySessionOnMiss(t *testing.T) {
	store := newFakeSessionStore()
	uc := NewSessionUseCase(store)

	session, err := uc.Load(context.Background(), "s-1", "guest")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID != "s-1" || len(session.Entities) != 0 {
		t.Fatalf("expected a fresh empty session, got %+v", session)
	}
}

func TestSessionUseCaseCommitFailureIsWrapped(t *testing.T) {
	store := newFakeSessionStore()
	store.saveErr = errors.New("disk full")
	uc := NewSessionUseCase(store)

	err := uc.Commit(context.Background(), &domain.Session{ID: "s-1"})
	if !domain.IsKind(err, domain.ErrSessionCommitFailed) {
		t.Fatalf("expected a wrapped ErrSessionCommitFailed, got %v", err)
	}
}

func TestSessionUseCaseActiveFiltersProjectsEntityMap(t *testing.T) {
	store := newFakeSessionStore()
	session := &domain.Session{ID: "s-1"}
	session.MergeEntities([]domain.EntityMapEntry{
		{Field: "destination", Value: "grcka", Kind: domain.EntityKindSticky},
		{Field: "price_max", Value: "300", Kind: domain.EntityKindSticky},
	})
	store.sessions["s-1"] = session
	uc := NewSessionUseCase(store)

	filters, err := uc.ActiveFilters(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filters.Destination != "grcka" {
		t.Fatalf("expected destination grcka, got %s", filters.Destination)
	}
	if filters.PriceMax != 300 || filters.PriceRange != domain.PriceRangeFromMax(300) {
		t.Fatalf("expected price_max 300 mapped to its price range, got %+v", filters)
	}
}

func TestSessionUseCaseJanitorSweepIsIdempotent(t *testing.T) {
	store := newFakeSessionStore()
	store.sessions["stale"] = &domain.Session{ID: "stale"}
	store.expired = []string{"stale"}
	uc := NewSessionUseCase(store)

	n, err := uc.JanitorSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one session evicted, got %d", n)
	}

	store.expired = nil
	n, err = uc.JanitorSweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected a second sweep with nothing expired to be a no-op, got %d", n)
	}
}

func TestSessionUseCaseLockSerializesPerSession(t *testing.T) {
	uc := NewSessionUseCase(newFakeSessionStore())
	unlock := uc.Lock("s-1")

	acquired := make(chan struct{})
	go func() {
		unlock2 := uc.Lock("s-1")
		close(acquired)
		unlock2()
	}()

	select {
	case <-acquired:
		t.Fatalf("expected the second lock attempt to block while the first is held")
	default:
	}
	unlock()
	<-acquired
}
