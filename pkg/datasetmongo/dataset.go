// Package datasetmongo implements a Dataset[T] backed by a MongoDB
// collection, for handlers that want a durable sink for scraped results.
// FIFO ordering is implemented via insertion-ordered ObjectID sort; Read
// finds and deletes the oldest (or, in LIFO mode, newest) document.
package datasetmongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/corvidlabs/corvid/pkg/coredataset"
	"github.com/corvidlabs/corvid/pkg/corerr"
)

// document is the wire shape stored per item: ObjectID gives natural
// insertion-order sorting, Payload carries the caller's value.
type document[T any] struct {
	ID      interface{} `bson:"_id,omitempty"`
	Payload T           `bson:"payload"`
}

// Dataset stores items of type T as documents in a MongoDB collection.
type Dataset[T any] struct {
	coll  *mongo.Collection
	order coredataset.Order
}

// New builds a Dataset over coll, reading in the given order.
func New[T any](coll *mongo.Collection, order coredataset.Order) *Dataset[T] {
	return &Dataset[T]{coll: coll, order: order}
}

var _ coredataset.Dataset[int] = (*Dataset[int])(nil)

// Write inserts item as a new document.
func (d *Dataset[T]) Write(ctx context.Context, item T) error {
	if _, err := d.coll.InsertOne(ctx, document[T]{Payload: item}); err != nil {
		return corerr.Wrap(corerr.KindDataset, err, "insert document into %s", d.coll.Name())
	}
	return nil
}

// Read finds-and-deletes the oldest document (FIFO) or newest document
// (LIFO) by _id, decoding its payload. ok is false when the collection is
// empty.
func (d *Dataset[T]) Read(ctx context.Context) (T, bool, error) {
	var zero T

	sortDir := 1
	if d.order == coredataset.LIFO {
		sortDir = -1
	}
	opts := options.FindOneAndDelete().SetSort(bson.D{{Key: "_id", Value: sortDir}})

	var doc document[T]
	err := d.coll.FindOneAndDelete(ctx, bson.M{}, opts).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, corerr.Wrap(corerr.KindDataset, err, "find-and-delete on %s", d.coll.Name())
	}
	return doc.Payload, true, nil
}

// Len reports the collection's document count.
func (d *Dataset[T]) Len(ctx context.Context) (int, error) {
	n, err := d.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, corerr.Wrap(corerr.KindDataset, err, "count documents in %s", d.coll.Name())
	}
	return int(n), nil
}
