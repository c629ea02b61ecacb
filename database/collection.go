package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by FindOne when no document matches.
var ErrNotFound = errors.New("document not found")

// Collection is a thin wrapper over *mongo.Collection that decodes into
// loose documents.
type Collection struct {
	coll *mongo.Collection
}

func NewCollection(coll *mongo.Collection) *Collection {
	return &Collection{coll: coll}
}

func (c *Collection) Name() string {
	return c.coll.Name()
}

func (c *Collection) InsertOne(ctx context.Context, doc interface{}) (*mongo.InsertOneResult, error) {
	res, err := c.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", c.Name(), err)
	}
	return res, nil
}

func (c *Collection) FindOne(ctx context.Context, filter interface{}) (bson.M, error) {
	var doc bson.M
	err := c.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", c.Name(), err)
	}
	return doc, nil
}

// Find returns every matching document. The result is never nil so that it
// encodes as an empty JSON array.
func (c *Collection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]bson.M, error) {
	cursor, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", c.Name(), err)
	}
	return decodeAll(ctx, cursor, c.Name())
}

func (c *Collection) UpdateOne(ctx context.Context, filter, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	res, err := c.coll.UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return nil, fmt.Errorf("update in %s: %w", c.Name(), err)
	}
	return res, nil
}

func (c *Collection) DeleteOne(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error) {
	res, err := c.coll.DeleteOne(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("delete from %s: %w", c.Name(), err)
	}
	return res, nil
}

func (c *Collection) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count in %s: %w", c.Name(), err)
	}
	return n, nil
}

func (c *Collection) Aggregate(ctx context.Context, pipeline interface{}) ([]bson.M, error) {
	cursor, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", c.Name(), err)
	}
	return decodeAll(ctx, cursor, c.Name())
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor, name string) ([]bson.M, error) {
	defer cursor.Close(ctx)

	docs := []bson.M{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if docs == nil {
		docs = []bson.M{}
	}
	return docs, nil
}
