package vectorstore

import (
	"context"
	"fmt"
	"log/slog"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"

	"github.com/oncorag/oncorag/pkg/embedder"
	"github.com/oncorag/oncorag/pkg/types"
)

// QdrantStore indexes chunks in a remote Qdrant instance over gRPC.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      qdrant.PointsClient
	collections qdrant.CollectionsClient
	collection  string
	log         *slog.Logger

	dimensions int
	backend    embedder.Backend
}

// NewQdrantStore connects to a Qdrant instance at addr and ensures the
// collection exists with the given dimensionality. The collection is pinned
// to the backend that created it.
func NewQdrantStore(addr, collection string, dimensions int, backend embedder.Backend, log *slog.Logger) (*QdrantStore, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("could not connect to qdrant at %s: %w", addr, err)
	}

	s := &QdrantStore{
		conn:        conn,
		points:      qdrant.NewPointsClient(conn),
		collections: qdrant.NewCollectionsClient(conn),
		collection:  collection,
		log:         log,
		dimensions:  dimensions,
		backend:     backend,
	}
	if err := s.ensureCollectionExists(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure collection exists: %w", err)
	}
	return s, nil
}

func (s *QdrantStore) ensureCollectionExists(ctx context.Context) error {
	_, err := s.collections.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: s.collection,
	})
	if err == nil {
		return nil
	}

	s.log.Info("creating qdrant collection",
		slog.String("collection", s.collection),
		slog.Int("dimensions", s.dimensions))

	_, err = s.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert writes embedded chunks as Qdrant points with the chunk fields as
// payload.
func (s *QdrantStore) Upsert(ctx context.Context, chunks []types.Chunk, backend embedder.Backend) error {
	if len(chunks) == 0 {
		return nil
	}
	if backend != s.backend {
		return fmt.Errorf("%w: collection uses %s, got %s", ErrBackendMismatch, s.backend, backend)
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s: %w", c.ID, ErrMissingEmbedding)
		}
		if len(c.Embedding) != s.dimensions {
			return embedder.NewDimensionMismatchError(s.dimensions, len(c.Embedding))
		}

		payload := map[string]*qdrant.Value{
			"text":        {Kind: &qdrant.Value_StringValue{StringValue: c.Text}},
			"patient_id":  {Kind: &qdrant.Value_StringValue{StringValue: c.PatientID}},
			"document_id": {Kind: &qdrant.Value_StringValue{StringValue: c.DocumentID}},
			"source":      {Kind: &qdrant.Value_StringValue{StringValue: c.Source}},
			"page":        {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(c.Page)}},
		}
		for k, v := range c.Metadata {
			payload[k] = metadataValue(v)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: c.ID}},
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: c.Embedding}}},
			Payload: payload,
		})
	}

	_, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           proto.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points to qdrant: %w", err)
	}

	s.log.Info("upserted chunks to qdrant",
		slog.Int("count", len(points)),
		slog.String("collection", s.collection))
	return nil
}

// metadataValue converts a chunk metadata entry into the matching qdrant
// payload kind. Unrecognized types fall back to their string form.
func metadataValue(v interface{}) *qdrant.Value {
	switch val := v.(type) {
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprint(val)}}
	}
}

// Query searches the collection, filtered to one patient when patientID is
// non-empty.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, k int, patientID string) ([]types.ScoredChunk, error) {
	if k <= 0 {
		return nil, types.ErrInvalidLimit
	}
	if len(vector) == 0 {
		return nil, embedder.ErrNoInput
	}
	if len(vector) != s.dimensions {
		return nil, embedder.NewDimensionMismatchError(s.dimensions, len(vector))
	}

	req := &qdrant.SearchPoints{
		CollectionName: s.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	}
	if patientID != "" {
		req.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "patient_id",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keyword{Keyword: patientID},
						},
					},
				},
			}},
		}
	}

	result, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search qdrant: %w", err)
	}

	scored := make([]types.ScoredChunk, 0, len(result.GetResult()))
	for _, hit := range result.GetResult() {
		payload := hit.GetPayload()
		if payload == nil {
			continue
		}

		id := ""
		if hit.GetId() != nil {
			if u, ok := hit.GetId().GetPointIdOptions().(*qdrant.PointId_Uuid); ok {
				id = u.Uuid
			}
		}

		metadata := make(map[string]interface{})
		for key, val := range payload {
			switch key {
			case "text", "patient_id", "document_id", "source", "page":
				continue
			}
			switch kind := val.GetKind().(type) {
			case *qdrant.Value_StringValue:
				metadata[key] = kind.StringValue
			case *qdrant.Value_IntegerValue:
				metadata[key] = int(kind.IntegerValue)
			case *qdrant.Value_DoubleValue:
				metadata[key] = kind.DoubleValue
			case *qdrant.Value_BoolValue:
				metadata[key] = kind.BoolValue
			}
		}

		scored = append(scored, types.ScoredChunk{
			Chunk: types.Chunk{
				ID:         id,
				DocumentID: payload["document_id"].GetStringValue(),
				PatientID:  payload["patient_id"].GetStringValue(),
				Source:     payload["source"].GetStringValue(),
				Page:       int(payload["page"].GetIntegerValue()),
				Text:       payload["text"].GetStringValue(),
				Metadata:   metadata,
			},
			Score: float64(hit.GetScore()),
		})
	}
	return scored, nil
}

// Clear deletes all points belonging to one patient.
func (s *QdrantStore) Clear(ctx context.Context, patientID string) error {
	if patientID == "" {
		return types.ErrEmptyPatientID
	}
	_, err := s.points.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           proto.Bool(true),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{{
						ConditionOneOf: &qdrant.Condition_Field{
							Field: &qdrant.FieldCondition{
								Key: "patient_id",
								Match: &qdrant.Match{
									MatchValue: &qdrant.Match_Keyword{Keyword: patientID},
								},
							},
						},
					}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to clear patient %s: %w", patientID, err)
	}
	return nil
}

// Count reports the number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	resp, err := s.points.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Exact:          proto.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return int(resp.GetResult().GetCount()), nil
}

// Close tears down the gRPC connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}
