package usecase

import (
	"context"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/llm/ollama"
)

// noContextApology is returned verbatim when synthesis has no chunks to
// ground an answer in, or when the completion call itself fails — the
// user must never see a raw error or an empty response.
const noContextApology = "Nažalost, trenutno nemam dovoljno informacija u ponudama da odgovorim na ovo pitanje. Možete li preformulisati upit ili navesti destinaciju i period putovanja?"

// categoryFollowupTemplates seeds context-relevant follow-ups per
// category detected in the top cited chunks.
var categoryFollowupTemplates = map[domain.Category][]string{
	domain.CategoryHotel: {
		"Kakve su dodatne usluge u hotelu?",
		"Da li hotel ima spa ili wellness centar?",
		"Kakve su mogućnosti ishrane?",
		"Da li je hotel pogodan za porodice sa decom?",
	},
	domain.CategoryTour: {
		"Šta je uključeno u cenu aranžmana?",
		"Kakav je prevoz predviđen?",
		"Da li postoje dodatni izleti?",
		"Koliko dana traje putovanje?",
	},
	domain.CategoryRestaurant: {
		"Kakva je kuhinja u restoranu?",
		"Da li je potrebna rezervacija?",
		"Kakve su cene jela?",
		"Da li imaju vegetarijanske opcije?",
	},
}

// genericFollowups pad out the suggestion list when the cited chunks
// don't fill it with category-specific questions.
var genericFollowups = []string{
	"Možete li mi dati više detalja o cenama?",
	"Da li postoje alternativne opcije?",
	"Kako mogu da rezervišem?",
	"Da li imate preporuke za dodatne aktivnosti?",
}

// noContextFollowups steer the user toward loosening constraints when
// nothing was found to ground an answer in.
var noContextFollowups = []string{
	"Možete li preformulisati upit?",
	"Da li biste probali drugu destinaciju?",
	"Da li možete proširiti budžet ili period putovanja?",
}

const maxFollowups = 4

func followupsForNoContext() []domain.SuggestedFollowup {
	return toFollowups(noContextFollowups)
}

// suggestedFollowups walks the top cited chunks' categories for
// template-matched questions, then pads with generic ones, capped at 4.
func suggestedFollowups(chunks []domain.ScoredChunk) []domain.SuggestedFollowup {
	seen := make(map[string]bool)
	var texts []string

	top := chunks
	if len(top) > 3 {
		top = top[:3]
	}
	for _, sc := range top {
		for _, q := range categoryFollowupTemplates[sc.Chunk.Metadata.Category] {
			if seen[q] {
				continue
			}
			seen[q] = true
			texts = append(texts, q)
		}
	}
	for _, q := range genericFollowups {
		if len(texts) >= maxFollowups {
			break
		}
		if seen[q] {
			continue
		}
		seen[q] = true
		texts = append(texts, q)
	}
	if len(texts) > maxFollowups {
		texts = texts[:maxFollowups]
	}
	return toFollowups(texts)
}

func toFollowups(texts []string) []domain.SuggestedFollowup {
	out := make([]domain.SuggestedFollowup, len(texts))
	for i, t := range texts {
		out[i] = domain.SuggestedFollowup{Text: t}
	}
	return out
}

// Synthesizer produces the grounded final answer from ranked chunks,
// in either a single batch call or a streaming one.
type Synthesizer struct {
	completer ports.ChatCompleter
}

func NewSynthesizer(completer ports.ChatCompleter) *Synthesizer {
	return &Synthesizer{completer: completer}
}

// SynthesizeBatch returns a fully-assembled Answer. Any completion error
// degrades to a graceful apology with zero confidence and no citations —
// the caller never sees a raw error.
func (s *Synthesizer) SynthesizeBatch(ctx context.Context, question string, chunks []domain.ScoredChunk, filters domain.StructuredFilters) *domain.Answer {
	if len(chunks) == 0 {
		return &domain.Answer{Text: noContextApology, Filters: filters, Followups: followupsForNoContext(), NoContext: true}
	}

	text, err := s.completer.Complete(ctx, ollama.BuildAnswerPrompt(question, chunks))
	if err != nil {
		return &domain.Answer{Text: noContextApology, Filters: filters, Followups: followupsForNoContext()}
	}

	return &domain.Answer{
		Text:       text,
		Sources:    citationsFromChunks(chunks),
		Followups:  suggestedFollowups(chunks),
		Filters:    filters,
		Confidence: averageConfidence(chunks),
	}
}

// SynthesizeStream issues a streaming completion, forwarding text
// deltas as SynthesisContent events and closing with exactly one
// SynthesisComplete or SynthesisError event.
func (s *Synthesizer) SynthesizeStream(ctx context.Context, question string, chunks []domain.ScoredChunk, filters domain.StructuredFilters) <-chan domain.SynthesisEvent {
	out := make(chan domain.SynthesisEvent)

	if len(chunks) == 0 {
		go func() {
			defer close(out)
			out <- domain.SynthesisEvent{Kind: domain.SynthesisContent, Text: noContextApology}
			out <- domain.SynthesisEvent{Kind: domain.SynthesisComplete, Complete: &domain.Answer{Text: noContextApology, Filters: filters, Followups: followupsForNoContext(), NoContext: true}}
		}()
		return out
	}

	tokens, errs := s.completer.Stream(ctx, ollama.BuildAnswerPrompt(question, chunks))
	go func() {
		defer close(out)
		var full string
		for {
			select {
			case tok, ok := <-tokens:
				if !ok {
					out <- domain.SynthesisEvent{Kind: domain.SynthesisComplete, Complete: &domain.Answer{
						Text:       full,
						Sources:    citationsFromChunks(chunks),
						Followups:  suggestedFollowups(chunks),
						Filters:    filters,
						Confidence: averageConfidence(chunks),
					}}
					return
				}
				full += tok
				out <- domain.SynthesisEvent{Kind: domain.SynthesisContent, Text: tok}
			case err, ok := <-errs:
				if ok && err != nil {
					out <- domain.SynthesisEvent{Kind: domain.SynthesisComplete, Complete: &domain.Answer{Text: noContextApology, Filters: filters, Followups: followupsForNoContext()}}
					return
				}
			case <-ctx.Done():
				out <- domain.SynthesisEvent{Kind: domain.SynthesisError, Err: ctx.Err()}
				return
			}
		}
	}()
	return out
}

// citationsFromChunks deduplicates by document filename, preserving
// first-occurrence order.
func citationsFromChunks(chunks []domain.ScoredChunk) []domain.SourceCitation {
	seen := make(map[string]bool)
	var citations []domain.SourceCitation
	for _, sc := range chunks {
		if seen[sc.Chunk.Filename] {
			continue
		}
		seen[sc.Chunk.Filename] = true
		citations = append(citations, domain.SourceCitation{
			DocumentID: sc.Chunk.DocumentID,
			Filename:   sc.Chunk.Filename,
			ChunkIndex: sc.Chunk.ChunkIndex,
			Score:      sc.AdjustedScore,
		})
	}
	return citations
}

func averageConfidence(chunks []domain.ScoredChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	var sum float64
	for _, sc := range chunks {
		sum += sc.AdjustedScore
	}
	conf := sum / float64(len(chunks))
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}
