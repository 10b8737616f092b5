package usecase

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kirillkom/personal-ai-assistant/internal/cache"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/llm/ollama"
)

const maxExpansionTerms = 12

// offTopicStopWords rejects expansion terms with no tourism relevance —
// the model occasionally drifts despite the prompt's domain framing.
var offTopicStopWords = map[string]bool{
	"vreme": true, "politika": true, "vesti": true, "sport": true, "vremenska prognoza": true,
}

// QueryExpander adds tourism-domain synonym terms to a query to improve
// semantic recall, caching results per distinct query text.
type QueryExpander struct {
	completer ports.ChatCompleter
	cache     *cache.Strings
}

func NewQueryExpander(completer ports.ChatCompleter, strCache *cache.Strings) *QueryExpander {
	return &QueryExpander{completer: completer, cache: strCache}
}

// Expand returns the query with up to 12 appended synonym terms. It
// falls back to the original query untouched on any completion error,
// invalid JSON, a term list longer than the limit, or any off-topic
// term in the list — validation rejects the whole expansion rather than
// trimming it.
func (e *QueryExpander) Expand(ctx context.Context, query string) string {
	if cached, ok := e.cache.Get(query); ok {
		return cached
	}

	raw, err := e.completer.Complete(ctx, ollama.BuildExpansionPrompt(query))
	if err != nil {
		return query
	}

	var terms []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &terms); err != nil {
		return query
	}
	if len(terms) > maxExpansionTerms {
		return query
	}

	accepted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" {
			continue
		}
		if offTopicStopWords[t] {
			return query
		}
		accepted = append(accepted, t)
	}
	if len(accepted) == 0 {
		return query
	}

	expanded := query + " " + strings.Join(accepted, " ")
	e.cache.Add(query, expanded)
	return expanded
}
