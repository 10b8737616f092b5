package qdrant

import (
	"context"
	"fmt"
	"sort"

	qdrantclient "github.com/qdrant/go-client/qdrant"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
)

// SearchLexical scores the hard-filtered candidate pool by BM25-style
// sparse term overlap rather than embedding distance, feeding the
// retriever's lexical-fusion fallback when semantic recall is thin.
// Candidates are pulled via Scroll (payload only, no vector needed) and
// scored client-side against the encoded query.
func (c *Client) SearchLexical(ctx context.Context, query string, limit int, filter *ports.HardFilter) ([]domain.ScoredChunk, error) {
	if err := c.ensureCollection(ctx); err != nil {
		return nil, err
	}

	queryVec := encodeSparseQuery(query)

	var results []domain.ScoredChunk
	err := c.executor.Execute(ctx, "qdrant_scroll", func(ctx context.Context) error {
		resp, err := c.points.Scroll(ctx, &qdrantclient.ScrollPoints{
			CollectionName: c.collection,
			Filter:         matchFilter(filter),
			Limit:          ptrUint32(uint32(limit * 5)),
			WithPayload: &qdrantclient.WithPayloadSelector{
				SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
			},
		})
		if err != nil {
			return fmt.Errorf("scroll points: %w", err)
		}

		scored := make([]domain.ScoredChunk, 0, len(resp.GetResult()))
		for _, point := range resp.GetResult() {
			payload := point.GetPayload()
			chunk := chunkFromPayload(payload)
			docVec := encodeSparseDocument(chunk.Text, chunk.Filename)
			sim := sparseCosine(queryVec, docVec)
			if sim <= 0 {
				continue
			}
			scored = append(scored, domain.ScoredChunk{Chunk: chunk, Similarity: sim})
		}
		results = topN(scored, limit)
		return nil
	}, classifyQdrantError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("qdrant_scroll", err)
	}
	return results, nil
}

func ptrUint32(v uint32) *uint32 { return &v }

func topN(chunks []domain.ScoredChunk, n int) []domain.ScoredChunk {
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Similarity > chunks[j].Similarity })
	if n > 0 && len(chunks) > n {
		return chunks[:n]
	}
	return chunks
}
