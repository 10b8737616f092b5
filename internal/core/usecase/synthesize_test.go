package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
)

type fakeChatCompleter struct {
	completeText string
	completeErr  error
	completeFn   func(prompt string) (string, error)
	jsonText     string
	jsonErr      error
	tokens       []string
	streamErr    error
	lastPrompt   string
}

func (f *fakeChatCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.completeFn != nil {
		return f.completeFn(prompt)
	}
	return f.completeText, f.completeErr
}

func (f *fakeChatCompleter) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.jsonText, f.jsonErr
}

func (f *fakeChatCompleter) Stream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	f.lastPrompt = prompt
	tokens := make(chan string, len(f.tokens))
	errs := make(chan error, 1)
	for _, tok := range f.tokens {
		tokens <- tok
	}
	close(tokens)
	if f.streamErr != nil {
		errs <- f.streamErr
	}
	close(errs)
	return tokens, errs
}

func chunkFrom(filename string, docID string, idx int) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:         filename + "-" + string(rune('0'+idx)),
			DocumentID: docID,
			Filename:   filename,
			ChunkIndex: idx,
		},
		AdjustedScore: 0.5,
	}
}

func TestSynthesizeBatchReturnsApologyWithNoChunks(t *testing.T) {
	s := NewSynthesizer(&fakeChatCompleter{})
	answer := s.SynthesizeBatch(context.Background(), "gde da idem", nil, domain.StructuredFilters{})
	if !answer.NoContext {
		t.Fatalf("expected NoContext to be set when there are no chunks")
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no sources without chunks")
	}
}

func TestSynthesizeBatchPopulatesFollowupsFromCitedCategories(t *testing.T) {
	s := NewSynthesizer(&fakeChatCompleter{completeText: "Evo odgovora."})
	chunk := chunkFrom("hotel-rim.pdf", "doc-1", 0)
	chunk.Chunk.Metadata.Category = domain.CategoryHotel

	answer := s.SynthesizeBatch(context.Background(), "kakav je hotel", []domain.ScoredChunk{chunk}, domain.StructuredFilters{})
	if len(answer.Followups) < 2 || len(answer.Followups) > 4 {
		t.Fatalf("expected 2-4 suggested follow-ups, got %d", len(answer.Followups))
	}
	if answer.Followups[0].Text != "Kakve su dodatne usluge u hotelu?" {
		t.Fatalf("expected the hotel-specific follow-up to lead, got %+v", answer.Followups)
	}
}

func TestSynthesizeBatchNoChunksSuggestsLooseningConstraints(t *testing.T) {
	s := NewSynthesizer(&fakeChatCompleter{})
	answer := s.SynthesizeBatch(context.Background(), "gde da idem", nil, domain.StructuredFilters{})
	if len(answer.Followups) == 0 {
		t.Fatalf("expected no-context follow-ups suggesting loosened constraints")
	}
}

func TestSynthesizeBatchDegradesGracefullyOnCompletionError(t *testing.T) {
	completer := &fakeChatCompleter{completeErr: errors.New("model unreachable")}
	s := NewSynthesizer(completer)
	chunks := []domain.ScoredChunk{chunkFrom("greece.pdf", "doc-1", 0)}

	answer := s.SynthesizeBatch(context.Background(), "gde da idem", chunks, domain.StructuredFilters{})
	if answer.Text != noContextApology {
		t.Fatalf("expected the user-facing apology on completion error, got %q", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no citations on a degraded answer")
	}
}

func TestCitationsFromChunksDeduplicatesByFilename(t *testing.T) {
	chunks := []domain.ScoredChunk{
		chunkFrom("greece.pdf", "doc-1", 0),
		chunkFrom("greece.pdf", "doc-1", 1),
		chunkFrom("turkey.pdf", "doc-2", 0),
	}
	citations := citationsFromChunks(chunks)
	if len(citations) != 2 {
		t.Fatalf("expected one citation per distinct filename, got %d", len(citations))
	}
	if citations[0].Filename != "greece.pdf" || citations[1].Filename != "turkey.pdf" {
		t.Fatalf("expected first-occurrence order preserved, got %+v", citations)
	}
}

func TestSynthesizeStreamEmitsContentThenComplete(t *testing.T) {
	completer := &fakeChatCompleter{tokens: []string{"Zdravo", ", ", "Grcka"}}
	s := NewSynthesizer(completer)
	chunks := []domain.ScoredChunk{chunkFrom("greece.pdf", "doc-1", 0)}

	events := s.SynthesizeStream(context.Background(), "gde da idem", chunks, domain.StructuredFilters{})
	var text string
	var complete *domain.Answer
	for ev := range events {
		switch ev.Kind {
		case domain.SynthesisContent:
			text += ev.Text
		case domain.SynthesisComplete:
			complete = ev.Complete
		}
	}
	if text != "Zdravo, Grcka" {
		t.Fatalf("expected concatenated stream text, got %q", text)
	}
	if complete == nil || complete.Text != "Zdravo, Grcka" {
		t.Fatalf("expected the terminal event to carry the full assembled answer, got %+v", complete)
	}
	if len(complete.Sources) != 1 {
		t.Fatalf("expected one source citation on the terminal event")
	}
}

func TestSynthesizeStreamNoChunksEmitsApologyThenComplete(t *testing.T) {
	s := NewSynthesizer(&fakeChatCompleter{})
	events := s.SynthesizeStream(context.Background(), "gde da idem", nil, domain.StructuredFilters{})

	var kinds []domain.SynthesisEventKind
	var complete *domain.Answer
	for ev := range events {
		kinds = append(kinds, ev.Kind)
		if ev.Kind == domain.SynthesisComplete {
			complete = ev.Complete
		}
	}
	if len(kinds) != 2 || kinds[0] != domain.SynthesisContent || kinds[1] != domain.SynthesisComplete {
		t.Fatalf("expected exactly a content event followed by a complete event, got %v", kinds)
	}
	if complete == nil || !complete.NoContext {
		t.Fatalf("expected the terminal answer to be flagged NoContext")
	}
}
