package metadata

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoGateway reads records from a MongoDB collection whose documents have
// the shape {machineName, active, meta}.
type MongoGateway struct {
	coll *mongo.Collection
}

// NewMongoGateway creates a gateway over coll.
func NewMongoGateway(coll *mongo.Collection) *MongoGateway {
	return &MongoGateway{coll: coll}
}

// FindActiveByName implements Gateway.
func (g *MongoGateway) FindActiveByName(ctx context.Context, name string) (*Record, error) {
	return g.FindAnyByName(ctx, name, false)
}

// FindAnyByName implements Gateway.
func (g *MongoGateway) FindAnyByName(ctx context.Context, name string, includeDisabled bool) (*Record, error) {
	var doc struct {
		MachineName string `bson:"machineName"`
		Active      bool   `bson:"active"`
		Meta        bson.M `bson:"meta"`
	}
	err := g.coll.FindOne(ctx, bson.M{"machineName": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find external library %q: %w", name, err)
	}

	rec := &Record{
		MachineName: doc.MachineName,
		Active:      doc.Active,
		Meta:        plainMap(doc.Meta),
	}
	return visible(rec, includeDisabled), nil
}

// plainMap converts nested BSON documents and arrays into plain Go maps and
// slices so that Meta encodes to JSON as objects.
func plainMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return plainMap(t)
	case map[string]any:
		return plainMap(t)
	case bson.D:
		return plainMap(t.Map())
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}

var _ Gateway = (*MongoGateway)(nil)
