package usecase

import (
	"context"
	"strings"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/gazetteer"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/llm/ollama"
)

// Rewriter turns the raw utterance into a standalone query, resolving
// pronouns and elided noun phrases against the session's recent turns
// and active entities, and seeds implicit filters from that context.
type Rewriter struct {
	completer ports.ChatCompleter
}

func NewRewriter(completer ports.ChatCompleter) *Rewriter {
	return &Rewriter{completer: completer}
}

// Rewrite returns the standalone query plus the implicit filters carried
// over from session context. It fails closed to the original utterance
// with no implicit filters on any completion error — a broken rewrite
// pass must never invent a filter the user didn't ask for.
func (r *Rewriter) Rewrite(ctx context.Context, utterance string, recent []domain.RecentTurn, active domain.ActiveEntityView) (string, domain.StructuredFilters) {
	rewritten, err := r.completer.Complete(ctx, ollama.BuildRewritePrompt(utterance, recent, active))
	if err != nil || strings.TrimSpace(rewritten) == "" {
		return utterance, domain.StructuredFilters{}
	}
	rewritten = strings.TrimSpace(rewritten)

	implicit := filtersFromEntities(active)
	applyContextSwitch(rewritten, &implicit)
	return rewritten, implicit
}

// applyContextSwitch detects a new destination mentioned in the
// rewritten query and, if it differs from the one carried over from
// session context, replaces it — dropping the stale destination while
// leaving budget and duration filters untouched.
func applyContextSwitch(rewritten string, implicit *domain.StructuredFilters) {
	dest, ok := gazetteer.CanonicalDestination(strings.ToLower(rewritten))
	if !ok {
		return
	}
	if implicit.Destination == "" || !strings.EqualFold(implicit.Destination, dest) {
		implicit.Destination = dest
	}
}
