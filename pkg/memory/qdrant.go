// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/maarifa/agentcore/pkg/errors"
)

// QdrantStore implements VectorStore over the Qdrant gRPC API.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// NewQdrantStore dials addr and returns a store. The connection is
// plaintext; Qdrant sits on the internal network.
func NewQdrantStore(addr string) (*QdrantStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, errors.Newf(errors.CodeInternal, "memory: dial qdrant %s: %v", addr, err)
	}
	return &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}, nil
}

// Close releases the underlying connection.
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

// EnsureCollection creates the collection with cosine distance if it is
// not already present.
func (s *QdrantStore) EnsureCollection(ctx context.Context, name string, vectorSize uint64) error {
	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{CollectionName: name})
	if err != nil {
		return errors.Wrap(err)
	}
	if resp.GetResult().GetExists() {
		return nil
	}
	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return errors.Wrap(err)
	}
	return nil
}

// Upsert writes points to the collection. Document fields travel in the
// point payload so search can reconstruct them.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	qPoints := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		payload := map[string]*pb.Value{
			"text":      stringValue(p.Document.Text),
			"course_id": stringValue(p.Document.CourseID),
			"locale":    stringValue(p.Document.Locale),
		}
		for k, v := range p.Document.Metadata {
			payload[k] = toValue(v)
		}
		qPoints[i] = &pb.PointStruct{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: p.Document.ID}},
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: p.Vector}}},
			Payload: payload,
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Points:         qPoints,
		Wait:           &wait,
	})
	if err != nil {
		return errors.Wrap(err)
	}
	return nil
}

// Search returns up to limit hits above scoreThreshold, best first.
func (s *QdrantStore) Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float32) ([]SearchHit, error) {
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(limit),
		ScoreThreshold: &scoreThreshold,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, errors.Wrap(err)
	}

	hits := make([]SearchHit, len(resp.Result))
	for i, r := range resp.Result {
		doc := Document{ID: pointID(r.Id)}
		meta := map[string]any{}
		for k, v := range r.Payload {
			val := fromValue(v)
			switch k {
			case "text":
				doc.Text, _ = val.(string)
			case "course_id":
				doc.CourseID, _ = val.(string)
			case "locale":
				doc.Locale, _ = val.(string)
			default:
				meta[k] = val
			}
		}
		if len(meta) > 0 {
			doc.Metadata = meta
		}
		hits[i] = SearchHit{Document: doc, Score: r.Score}
	}
	return hits, nil
}

func pointID(id *pb.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprintf("%d", id.GetNum())
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func toValue(v any) *pb.Value {
	switch val := v.(type) {
	case string:
		return stringValue(val)
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: val}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: val}}
	default:
		return stringValue(fmt.Sprintf("%v", val))
	}
}

func fromValue(v *pb.Value) any {
	switch kind := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_BoolValue:
		return kind.BoolValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	default:
		return nil
	}
}
