// Package chunking windows extracted PDF text into overlapping chunks
// sized to an approximate LLM token budget, keeping table blocks as
// self-contained chunks that bypass windowing entirely.
package chunking

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
)

// charsPerToken approximates the ratio between rune count and LLM token
// count for windowing purposes. Windowing needs a stable rune index it
// can slide over; an exact tokenizer only tells you the count of an
// already-cut span, so it is used for reporting, not for driving the cut
// points themselves.
const charsPerToken = 4

// Splitter windows plain text into overlapping chunks.
type Splitter struct {
	ChunkSize int // in runes
	Overlap   int // in runes
}

// NewSplitter builds a splitter from a token budget (e.g. 1024 tokens,
// 20% overlap), converting to the rune-based window it actually uses.
func NewSplitter(tokenBudget, overlapTokens int) *Splitter {
	if tokenBudget <= 0 {
		tokenBudget = 1024
	}
	chunkSize := tokenBudget * charsPerToken
	overlap := overlapTokens * charsPerToken
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// SplitPages windows a document's pages into ordered text segments,
// keeping every table as its own untouched segment. The returned bool
// per segment reports whether it is a table.
func (s *Splitter) SplitPages(pages []ports.PDFPage) []Segment {
	var out []Segment
	for _, page := range pages {
		for _, table := range page.Tables {
			text := strings.Join(table, "\n")
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			out = append(out, Segment{Text: text, IsTable: true})
		}
		for _, part := range s.Split(page.Text) {
			out = append(out, Segment{Text: part})
		}
	}
	return out
}

// Segment is one windowed piece of a document, prior to enrichment.
type Segment struct {
	Text    string
	IsTable bool
}

// tikTokenEncoding is initialized once at package load; if the encoding
// cannot be loaded it stays nil and CountTokens falls back to the rune
// approximation.
var tikTokenEncoding = func() *tiktoken.Tiktoken {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil
	}
	return enc
}()

// CountTokens reports an exact token count for already-cut text, used by
// tests to validate the rune-based approximation stays close
// to a real tokenizer's budget.
func CountTokens(text string) int {
	if tikTokenEncoding == nil {
		return len([]rune(text)) / charsPerToken
	}
	return len(tikTokenEncoding.Encode(text, nil, nil))
}
