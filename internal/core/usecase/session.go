package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
)

// SessionUseCase owns session lifecycle: create-on-miss load, per-session
// mutual exclusion, explicit reset, active-filter projection, and the
// janitor sweep. Per-session serialization is an explicit sync.Map of
// mutexes rather than the teacher's implicit single-row-update pattern,
// since this core has no outer HTTP layer serializing requests for it.
type SessionUseCase struct {
	store ports.SessionStore
	locks sync.Map // sessionID -> *sync.Mutex
}

func NewSessionUseCase(store ports.SessionStore) *SessionUseCase {
	return &SessionUseCase{store: store}
}

func (uc *SessionUseCase) lockFor(sessionID string) *sync.Mutex {
	actual, _ := uc.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// Lock acquires the per-session mutex and returns an unlock function.
// Callers hold it for the full request, per spec's concurrency model.
func (uc *SessionUseCase) Lock(sessionID string) func() {
	mu := uc.lockFor(sessionID)
	mu.Lock()
	return mu.Unlock
}

// Load fetches session state, creating an empty session on miss rather
// than failing the request — reads that fail fall through to an empty
// session per the error-handling design.
func (uc *SessionUseCase) Load(ctx context.Context, sessionID, userType string) (*domain.Session, error) {
	if session, err := uc.store.Load(ctx, sessionID); err == nil {
		return session, nil
	}
	now := time.Now().UTC()
	return &domain.Session{ID: sessionID, UserType: userType, CreatedAt: now, UpdatedAt: now}, nil
}

// Commit persists the session, wrapped as ErrSessionCommitFailed since a
// commit failure at end-of-request must fail loud per the error design.
func (uc *SessionUseCase) Commit(ctx context.Context, session *domain.Session) error {
	session.UpdatedAt = time.Now().UTC()
	if err := uc.store.Save(ctx, session); err != nil {
		return domain.WrapError(domain.ErrSessionCommitFailed, "commit session", err)
	}
	return nil
}

func (uc *SessionUseCase) CreateSession(ctx context.Context, userType string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	session := &domain.Session{ID: id, UserType: userType, CreatedAt: now, UpdatedAt: now}
	if err := uc.store.Save(ctx, session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (uc *SessionUseCase) ResetSession(ctx context.Context, sessionID string) error {
	unlock := uc.Lock(sessionID)
	defer unlock()
	if err := uc.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}

// ActiveFilters projects the session's ActiveEntityView onto
// StructuredFilters, for UI display of "currently in force" filters.
func (uc *SessionUseCase) ActiveFilters(ctx context.Context, sessionID string) (domain.StructuredFilters, error) {
	session, err := uc.store.Load(ctx, sessionID)
	if err != nil {
		if domain.IsKind(err, domain.ErrSessionNotFound) {
			return domain.StructuredFilters{}, nil
		}
		return domain.StructuredFilters{}, fmt.Errorf("load session: %w", err)
	}
	return filtersFromEntities(session.ActiveView()), nil
}

func filtersFromEntities(view domain.ActiveEntityView) domain.StructuredFilters {
	var filters domain.StructuredFilters
	for _, e := range view.Entries {
		switch e.Field {
		case "destination":
			filters.Destination = e.Value
		case "travel_month":
			filters.TravelMonth = e.Value
		case "category":
			filters.Category = domain.Category(e.Value)
		case "price_range":
			filters.PriceRange = domain.PriceRange(e.Value)
		case "price_max":
			if v, err := strconv.ParseFloat(e.Value, 64); err == nil {
				filters.PriceMax = v
				filters.PriceRange = domain.PriceRangeFromMax(v)
			}
		case "duration_days":
			if v, err := strconv.Atoi(e.Value); err == nil {
				filters.DurationDays = v
			}
		case "family_friendly":
			v := e.Value == "true"
			filters.FamilyFriendly = &v
		}
	}
	return filters
}

// JanitorSweep drops sessions idle past the expiry window and frees
// their in-process locks. Running it twice in a row is a no-op the
// second time, satisfying the idempotent-expiry property.
func (uc *SessionUseCase) JanitorSweep(ctx context.Context) (int, error) {
	expired, err := uc.store.ListExpired(ctx, 0)
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}
	for _, id := range expired {
		if err := uc.store.Delete(ctx, id); err != nil {
			return 0, fmt.Errorf("delete expired session %s: %w", id, err)
		}
		uc.locks.Delete(id)
	}
	return len(expired), nil
}
