package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/observability/metrics"
)

// QueryUseCase is the top-level orchestrator for one query turn: session
// load, rewrite, entity extraction, self-query parsing, expansion,
// retrieval, synthesis, and a single end-of-request session commit.
type QueryUseCase struct {
	sessions  *SessionUseCase
	rewriter  *Rewriter
	entities  *EntityExtractor
	selfQuery *SelfQueryParser
	expander  *QueryExpander
	retriever *Retriever
	synth     *Synthesizer
	metrics   *metrics.HTTPServerMetrics
	logger    zerolog.Logger
	service   string
}

func NewQueryUseCase(
	sessions *SessionUseCase,
	rewriter *Rewriter,
	entities *EntityExtractor,
	selfQuery *SelfQueryParser,
	expander *QueryExpander,
	retriever *Retriever,
	synth *Synthesizer,
	m *metrics.HTTPServerMetrics,
	logger zerolog.Logger,
	service string,
) *QueryUseCase {
	return &QueryUseCase{
		sessions:  sessions,
		rewriter:  rewriter,
		entities:  entities,
		selfQuery: selfQuery,
		expander:  expander,
		retriever: retriever,
		synth:     synth,
		metrics:   m,
		logger:    logger,
		service:   service,
	}
}

// Query runs one full turn. When stream is false, the returned channel
// is nil and the Answer is populated. When stream is true, the Answer is
// nil and the caller drains the channel to completion; the session
// commit happens right after the complete event has been delivered and
// before the channel closes, mirroring the batch path's end-of-request
// commit point.
func (uc *QueryUseCase) Query(ctx context.Context, sessionID, userType, utterance string, stream bool) (*domain.Answer, <-chan domain.SynthesisEvent, error) {
	start := time.Now()
	unlock := uc.sessions.Lock(sessionID)

	session, err := uc.sessions.Load(ctx, sessionID, userType)
	if err != nil {
		unlock()
		return nil, nil, err
	}

	active := session.ActiveView()
	rewritten, implicit := uc.rewriter.Rewrite(ctx, utterance, session.RecentTurns, active)

	extracted := uc.entities.Extract(ctx, utterance, session.RecentTurns)
	session.MergeEntities(extracted)
	session.AgeAndEvict(fieldSet(extracted))
	implicit = overlayEntities(implicit, extracted)

	filters := uc.selfQuery.Parse(ctx, rewritten, implicit)

	expanded := uc.expander.Expand(ctx, rewritten)

	chunks, err := uc.retriever.Retrieve(ctx, expanded, filters)
	if err != nil {
		uc.logger.Warn().Err(err).Str("session_id", sessionID).Msg("retrieval degraded to no context")
		chunks = nil
	}

	if !stream {
		answer := uc.synth.SynthesizeBatch(ctx, rewritten, chunks, filters)
		commitErr := uc.commitTurn(ctx, session, utterance, rewritten, filters, answer.Text)
		uc.metrics.RecordQuery(uc.service, userType, false, len(answer.Sources), time.Since(start))
		unlock()
		if commitErr != nil {
			return nil, nil, commitErr
		}
		return answer, nil, nil
	}

	inner := uc.synth.SynthesizeStream(ctx, rewritten, chunks, filters)
	out := make(chan domain.SynthesisEvent)
	go func() {
		defer close(out)
		defer unlock()
		sourceCount := 0
		for ev := range inner {
			out <- ev
			if ev.Kind == domain.SynthesisComplete && ev.Complete != nil {
				sourceCount = len(ev.Complete.Sources)
				uc.commitTurn(ctx, session, utterance, rewritten, filters, ev.Complete.Text)
			}
		}
		uc.metrics.RecordQuery(uc.service, userType, true, sourceCount, time.Since(start))
	}()
	return nil, out, nil
}

// commitTurn appends the turn and commits the session, unless the
// request was cancelled — a cancelled request must leave session state
// untouched. Commit failures are counted, logged and returned as the
// ErrSessionCommitFailed error from SessionUseCase.Commit; the batch path
// returns that error instead of the answer, while the stream path has
// already delivered its events and only logs it.
func (uc *QueryUseCase) commitTurn(ctx context.Context, session *domain.Session, utterance, rewritten string, filters domain.StructuredFilters, answerText string) error {
	if ctx.Err() != nil {
		return nil
	}
	turn := domain.RecentTurn{
		Utterance:      utterance,
		RewrittenQuery: rewritten,
		AnswerText:     answerText,
		Filters:        filters,
		CreatedAt:      time.Now().UTC(),
	}
	session.AppendTurn(turn)
	if err := uc.sessions.Commit(ctx, session); err != nil {
		uc.metrics.RecordSessionCommitFailure(uc.service)
		uc.logger.Error().Err(err).Str("session_id", session.ID).Msg("session commit failed")
		return err
	}
	return nil
}

// overlayEntities layers this turn's freshly extracted entities over the
// implicit filters carried from session context — an entity the user
// just stated outranks a stale one inherited from earlier turns.
func overlayEntities(base domain.StructuredFilters, fresh []domain.EntityMapEntry) domain.StructuredFilters {
	if len(fresh) == 0 {
		return base
	}
	overlay := filtersFromEntities(domain.ActiveEntityView{Entries: fresh})
	if overlay.Destination != "" {
		base.Destination = overlay.Destination
	}
	if overlay.TravelMonth != "" {
		base.TravelMonth = overlay.TravelMonth
	}
	if overlay.Category != "" {
		base.Category = overlay.Category
	}
	if overlay.PriceMax > 0 {
		base.PriceMax = overlay.PriceMax
		base.PriceRange = overlay.PriceRange
	}
	if overlay.DurationDays > 0 {
		base.DurationDays = overlay.DurationDays
	}
	if overlay.FamilyFriendly != nil {
		base.FamilyFriendly = overlay.FamilyFriendly
	}
	return base
}
