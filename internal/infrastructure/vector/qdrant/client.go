// Package qdrant is the vector store adapter, using the official
// qdrant/go-client gRPC client rather than raw REST — the retrieval
// pack's apollison-llm-rag-poc repo demonstrates this client end to end
// (collection setup, point upsert, filtered search) against the same
// product the reference assistant talks to over REST.
package qdrant

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	qdrantclient "github.com/qdrant/go-client/qdrant"

	"github.com/kirillkom/personal-ai-assistant/internal/core/domain"
	"github.com/kirillkom/personal-ai-assistant/internal/core/ports"
	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/resilience"
)

type Client struct {
	collection string
	vectorSize uint64
	conn       *grpc.ClientConn
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	executor    *resilience.Executor

	mu      sync.Mutex
	ensured bool
}

func New(addr, collection string, vectorSize int, executor *resilience.Executor) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial qdrant at %s: %w", addr, err)
	}
	return &Client{
		collection:  collection,
		vectorSize:  uint64(vectorSize),
		conn:        conn,
		collections: qdrantclient.NewCollectionsClient(conn),
		points:      qdrantclient.NewPointsClient(conn),
		executor:    executor,
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) ensureCollection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ensured {
		return nil
	}

	list, err := c.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, col := range list.GetCollections() {
		if col.GetName() == c.collection {
			c.ensured = true
			return nil
		}
	}

	_, err = c.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: c.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     c.vectorSize,
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", c.collection, err)
	}
	c.ensured = true
	return nil
}

func chunkPointID(chunkID string) *qdrantclient.PointId {
	return &qdrantclient.PointId{
		PointIdOptions: &qdrantclient.PointId_Uuid{Uuid: chunkID},
	}
}

func stringValue(s string) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_StringValue{StringValue: s}}
}

func doubleValue(f float64) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_DoubleValue{DoubleValue: f}}
}

func integerValue(i int64) *qdrantclient.Value {
	return &qdrantclient.Value{Kind: &qdrantclient.Value_IntegerValue{IntegerValue: i}}
}

func chunkPayload(chunk domain.Chunk) map[string]*qdrantclient.Value {
	payload := map[string]*qdrantclient.Value{
		"document_id": stringValue(chunk.DocumentID),
		"filename":    stringValue(chunk.Filename),
		"chunk_index": integerValue(int64(chunk.ChunkIndex)),
		"text":        stringValue(chunk.Text),
		"destination": stringValue(chunk.Metadata.Destination),
		"category":    stringValue(string(chunk.Metadata.Category)),
		"subcategory": stringValue(chunk.Metadata.Subcategory),
		"price_range": stringValue(string(chunk.Metadata.PriceRange)),
		"price_max":   doubleValue(chunk.Metadata.PriceMax),
		"travel_month": stringValue(chunk.Metadata.TravelMonth),
		"season":      stringValue(string(chunk.Metadata.Season)),
		"duration_days": integerValue(int64(chunk.Metadata.DurationDays)),
	}
	if chunk.Metadata.FamilyFriendly != nil {
		payload["family_friendly"] = &qdrantclient.Value{Kind: &qdrantclient.Value_BoolValue{BoolValue: *chunk.Metadata.FamilyFriendly}}
	}
	if len(chunk.Metadata.Amenities) > 0 {
		payload["amenities"] = stringValue(joinComma(chunk.Metadata.Amenities))
	}
	return payload
}

func joinComma(vals []string) string {
	out := ""
	for i, v := range vals {
		if i > 0 {
			out += ","
		}
		out += v
	}
	return out
}

func (c *Client) IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx); err != nil {
		return err
	}

	points := make([]*qdrantclient.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, &qdrantclient.PointStruct{
			Id: chunkPointID(chunk.ID),
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: vectors[i]},
				},
			},
			Payload: chunkPayload(chunk),
		})
	}

	err := c.executor.Execute(ctx, "qdrant_upsert", func(ctx context.Context) error {
		_, err := c.points.Upsert(ctx, &qdrantclient.UpsertPoints{
			CollectionName: c.collection,
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("upsert points: %w", err)
		}
		return nil
	}, classifyQdrantError)
	if err != nil {
		return wrapTemporaryIfNeeded("qdrant_upsert", err)
	}
	return nil
}

func matchFilter(f *ports.HardFilter) *qdrantclient.Filter {
	if f == nil || f.Field == "" || f.Value == "" {
		return nil
	}
	return &qdrantclient.Filter{
		Must: []*qdrantclient.Condition{
			{
				ConditionOneOf: &qdrantclient.Condition_Field{
					Field: &qdrantclient.FieldCondition{
						Key: string(f.Field),
						Match: &qdrantclient.Match{
							MatchValue: &qdrantclient.Match_Keyword{Keyword: f.Value},
						},
					},
				},
			},
		},
	}
}

func payloadString(payload map[string]*qdrantclient.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func chunkFromPayload(payload map[string]*qdrantclient.Value) domain.Chunk {
	familyFriendly := (*bool)(nil)
	if v, ok := payload["family_friendly"]; ok {
		b := v.GetBoolValue()
		familyFriendly = &b
	}
	return domain.Chunk{
		DocumentID: payloadString(payload, "document_id"),
		Filename:   payloadString(payload, "filename"),
		ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
		Text:       payloadString(payload, "text"),
		Metadata: domain.EnrichedMetadata{
			Destination:   payloadString(payload, "destination"),
			Category:      domain.Category(payloadString(payload, "category")),
			Subcategory:   payloadString(payload, "subcategory"),
			PriceRange:    domain.PriceRange(payloadString(payload, "price_range")),
			PriceMax:      payload["price_max"].GetDoubleValue(),
			TravelMonth:   payloadString(payload, "travel_month"),
			Season:        domain.Season(payloadString(payload, "season")),
			DurationDays:  int(payload["duration_days"].GetIntegerValue()),
			FamilyFriendly: familyFriendly,
		},
	}
}

func (c *Client) Search(ctx context.Context, queryVector []float32, limit int, filter *ports.HardFilter) ([]domain.ScoredChunk, error) {
	if err := c.ensureCollection(ctx); err != nil {
		return nil, err
	}

	var results []domain.ScoredChunk
	err := c.executor.Execute(ctx, "qdrant_search", func(ctx context.Context) error {
		resp, err := c.points.Search(ctx, &qdrantclient.SearchPoints{
			CollectionName: c.collection,
			Vector:         queryVector,
			Limit:          uint64(limit),
			Filter:         matchFilter(filter),
			WithPayload: &qdrantclient.WithPayloadSelector{
				SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
			},
		})
		if err != nil {
			return fmt.Errorf("search points: %w", err)
		}
		results = make([]domain.ScoredChunk, 0, len(resp.GetResult()))
		for _, point := range resp.GetResult() {
			distance := float64(point.GetScore())
			sim := 1.0 / (1.0 + distance)
			results = append(results, domain.ScoredChunk{
				Chunk:      chunkFromPayload(point.GetPayload()),
				Similarity: sim,
			})
		}
		return nil
	}, classifyQdrantError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("qdrant_search", err)
	}
	return results, nil
}

func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	return c.executor.Execute(ctx, "qdrant_delete", func(ctx context.Context) error {
		_, err := c.points.Delete(ctx, &qdrantclient.DeletePoints{
			CollectionName: c.collection,
			Points: &qdrantclient.PointsSelector{
				PointsSelectorOneOf: &qdrantclient.PointsSelector_Filter{
					Filter: &qdrantclient.Filter{
						Must: []*qdrantclient.Condition{
							{
								ConditionOneOf: &qdrantclient.Condition_Field{
									Field: &qdrantclient.FieldCondition{
										Key: "document_id",
										Match: &qdrantclient.Match{
											MatchValue: &qdrantclient.Match_Keyword{Keyword: documentID},
										},
									},
								},
							},
						},
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("delete document %s: %w", documentID, err)
		}
		return nil
	}, classifyQdrantError)
}

func (c *Client) GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	var chunk *domain.Chunk
	err := c.executor.Execute(ctx, "qdrant_get", func(ctx context.Context) error {
		resp, err := c.points.Get(ctx, &qdrantclient.GetPoints{
			CollectionName: c.collection,
			Ids:            []*qdrantclient.PointId{chunkPointID(chunkID)},
			WithPayload: &qdrantclient.WithPayloadSelector{
				SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
			},
		})
		if err != nil {
			return fmt.Errorf("get point %s: %w", chunkID, err)
		}
		if len(resp.GetResult()) == 0 {
			return domain.WrapError(domain.ErrDocumentNotFound, "get chunk", fmt.Errorf("chunk %s not found", chunkID))
		}
		c := chunkFromPayload(resp.GetResult()[0].GetPayload())
		c.ID = chunkID
		chunk = &c
		return nil
	}, classifyQdrantError)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			return nil, err
		}
		return nil, wrapTemporaryIfNeeded("qdrant_get", err)
	}
	return chunk, nil
}

func (c *Client) Stats(ctx context.Context) (ports.VectorStoreStats, error) {
	info, err := c.collections.Get(ctx, &qdrantclient.GetCollectionInfoRequest{CollectionName: c.collection})
	if err != nil {
		return ports.VectorStoreStats{}, fmt.Errorf("collection info: %w", err)
	}
	return ports.VectorStoreStats{ChunkCount: int(info.GetResult().GetPointsCount())}, nil
}
