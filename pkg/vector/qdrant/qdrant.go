// Copyright 2026 © The Ergon Authors
// SPDX-License-Identifier: Apache-2.0

// Package qdrant implements the vector.Store contract over the Qdrant gRPC
// API.
package qdrant

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jllopis/ergon/pkg/vector"
)

// Store talks to one Qdrant instance through the low-level points and
// collections clients sharing a single connection.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
}

// New connects to the Qdrant gRPC endpoint at addr (host:port). The
// transport is plaintext; Qdrant deployments that need TLS sit behind a
// local proxy in this setup.
func New(addr string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
	}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// CreateCollection creates a cosine-distance collection.
func (s *Store) CreateCollection(ctx context.Context, name string, vectorSize uint64) error {
	_, err := s.collections.Create(ctx, &pb.CreateCollection{
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
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

// CollectionExists reports whether the collection is present.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	resp, err := s.collections.CollectionExists(ctx, &pb.CollectionExistsRequest{
		CollectionName: name,
	})
	if err != nil {
		return false, fmt.Errorf("check collection %s: %w", name, err)
	}
	return resp.GetResult().GetExists(), nil
}

// Upsert adds or overwrites points. Point ids must already be in UUID form;
// Qdrant rejects arbitrary strings.
func (s *Store) Upsert(ctx context.Context, collection string, points []vector.Point) error {
	qPoints := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		qPoints[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: p.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: p.Vector},
				},
			},
			Payload: toPayload(p.Payload),
		}
	}

	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Points:         qPoints,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points into %s: %w", len(points), collection, err)
	}
	return nil
}

// Query returns up to limit nearest neighbors of vec.
func (s *Store) Query(ctx context.Context, collection string, vec []float32, limit uint64, threshold *float32, filter map[string]any) ([]vector.Match, error) {
	req := &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vec,
		Limit:          limit,
		ScoreThreshold: threshold,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if len(filter) > 0 {
		req.Filter = toFilter(filter)
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	matches := make([]vector.Match, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		id := r.GetId().GetUuid()
		if id == "" {
			id = fmt.Sprintf("%d", r.GetId().GetNum())
		}
		matches[i] = vector.Match{
			ID:      id,
			Score:   r.GetScore(),
			Payload: fromPayload(r.GetPayload()),
		}
	}
	return matches, nil
}

// Delete removes the points with the given ids.
func (s *Store) Delete(ctx context.Context, collection string, ids []string) error {
	pointIDs := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}
	}

	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete %d points from %s: %w", len(ids), collection, err)
	}
	return nil
}

// toFilter builds an exact-match keyword filter; every pair must match.
func toFilter(filter map[string]any) *pb.Filter {
	must := make([]*pb.Condition, 0, len(filter))
	for key, val := range filter {
		var match *pb.Match
		switch v := val.(type) {
		case string:
			match = &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: v}}
		case bool:
			match = &pb.Match{MatchValue: &pb.Match_Boolean{Boolean: v}}
		case int:
			match = &pb.Match{MatchValue: &pb.Match_Integer{Integer: int64(v)}}
		case int64:
			match = &pb.Match{MatchValue: &pb.Match_Integer{Integer: v}}
		default:
			match = &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: fmt.Sprintf("%v", v)}}
		}
		must = append(must, &pb.Condition{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{Key: key, Match: match},
			},
		})
	}
	return &pb.Filter{Must: must}
}

func toPayload(payload map[string]any) map[string]*pb.Value {
	out := make(map[string]*pb.Value, len(payload))
	for k, v := range payload {
		out[k] = toValue(v)
	}
	return out
}

// toValue converts one payload value recursively, so nested metadata maps
// and tag lists survive the round trip.
func toValue(v any) *pb.Value {
	switch val := v.(type) {
	case nil:
		return &pb.Value{Kind: &pb.Value_NullValue{NullValue: pb.NullValue_NULL_VALUE}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: val}}
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: val}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: val}}
	case float32:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: float64(val)}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: val}}
	case []string:
		values := make([]*pb.Value, len(val))
		for i, item := range val {
			values[i] = toValue(item)
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
	case []any:
		values := make([]*pb.Value, len(val))
		for i, item := range val {
			values[i] = toValue(item)
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
	case map[string]any:
		return &pb.Value{Kind: &pb.Value_StructValue{StructValue: &pb.Struct{Fields: toPayload(val)}}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprintf("%v", val)}}
	}
}

func fromPayload(payload map[string]*pb.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v *pb.Value) any {
	switch kind := v.GetKind().(type) {
	case *pb.Value_NullValue:
		return nil
	case *pb.Value_BoolValue:
		return kind.BoolValue
	case *pb.Value_StringValue:
		return kind.StringValue
	case *pb.Value_IntegerValue:
		return kind.IntegerValue
	case *pb.Value_DoubleValue:
		return kind.DoubleValue
	case *pb.Value_ListValue:
		items := make([]any, len(kind.ListValue.GetValues()))
		for i, item := range kind.ListValue.GetValues() {
			items[i] = fromValue(item)
		}
		return items
	case *pb.Value_StructValue:
		return fromPayload(kind.StructValue.GetFields())
	default:
		return nil
	}
}

var _ vector.Store = (*Store)(nil)
