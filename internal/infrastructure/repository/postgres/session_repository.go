// Package postgres holds the bun- and pgx-backed persistence adapters.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
)

var _ = stdlib.GetDefaultDriver // keep pgx/v5/stdlib registered as bun's driver

// sessionRow is the bun model backing one session's memory. The ring and
// entity map are stored as JSONB since their shape is small and always
// read/written whole, matching how the reference conversation store
// treats one conversation as a single row.
type sessionRow struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID          string    `bun:"id,pk"`
	UserType    string    `bun:"user_type"`
	RecentTurns string    `bun:"recent_turns,type:jsonb"`
	Entities    string    `bun:"entities,type:jsonb"`
	TurnCount   int       `bun:"turn_count"`
	CreatedAt   time.Time `bun:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at"`
}

type SessionRepository struct {
	db *bun.DB
}

// NewSessionRepository wraps an already-open *sql.DB (via pgx/v5/stdlib)
// in bun's pgdialect.
func NewSessionRepository(sqldb *sql.DB) *SessionRepository {
	return &SessionRepository{db: bun.NewDB(sqldb, pgdialect.New())}
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.NewCreateTable().Model((*sessionRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := new(sessionRow)
	err := r.db.NewSelect().Model(row).Where("id = ?", sessionID).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "load session", err)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return rowToSession(row)
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	row, err := sessionToRow(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("user_type = EXCLUDED.user_type").
		Set("recent_turns = EXCLUDED.recent_turns").
		Set("entities = EXCLUDED.entities").
		Set("turn_count = EXCLUDED.turn_count").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.NewDelete().Model((*sessionRow)(nil)).Where("id = ?", sessionID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) ListExpired(ctx context.Context, olderThanTurns int) ([]string, error) {
	var ids []string
	err := r.db.NewSelect().
		Model((*sessionRow)(nil)).
		Column("id").
		Where("updated_at < ?", time.Now().Add(-24*time.Hour)).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	return ids, nil
}

func sessionToRow(s *domain.Session) (*sessionRow, error) {
	turns, err := json.Marshal(s.RecentTurns)
	if err != nil {
		return nil, err
	}
	entities, err := json.Marshal(s.Entities)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	created := s.CreatedAt
	if created.IsZero() {
		created = now
	}
	return &sessionRow{
		ID:          s.ID,
		UserType:    s.UserType,
		RecentTurns: string(turns),
		Entities:    string(entities),
		TurnCount:   s.TurnCount,
		CreatedAt:   created,
		UpdatedAt:   now,
	}, nil
}

func rowToSession(row *sessionRow) (*domain.Session, error) {
	var turns []domain.RecentTurn
	if err := json.Unmarshal([]byte(row.RecentTurns), &turns); err != nil {
		return nil, fmt.Errorf("unmarshal recent_turns: %w", err)
	}
	var entities []domain.EntityMapEntry
	if err := json.Unmarshal([]byte(row.Entities), &entities); err != nil {
		return nil, fmt.Errorf("unmarshal entities: %w", err)
	}
	return &domain.Session{
		ID:          row.ID,
		UserType:    row.UserType,
		RecentTurns: turns,
		Entities:    entities,
		TurnCount:   row.TurnCount,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}
