// Package datasetredis implements a Dataset[T] backed by a Redis list,
// using github.com/redis/go-redis/v9 as the client. Items are JSON-encoded
// for the wire; FIFO mode reads with LPOP, LIFO mode reads with RPOP,
// matching InMemoryDataset's two read orders against a real external store.
package datasetredis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/corvidlabs/corvid/pkg/coredataset"
	"github.com/corvidlabs/corvid/pkg/corerr"
)

// Dataset stores items of type T in a single Redis list keyed by key.
type Dataset[T any] struct {
	client *redis.Client
	key    string
	order  coredataset.Order
}

// New builds a Dataset using client, storing items under key in the given
// read order.
func New[T any](client *redis.Client, key string, order coredataset.Order) *Dataset[T] {
	return &Dataset[T]{client: client, key: key, order: order}
}

var _ coredataset.Dataset[int] = (*Dataset[int])(nil)

// Write appends item to the list, RPUSH-ing its JSON encoding.
func (d *Dataset[T]) Write(ctx context.Context, item T) error {
	data, err := json.Marshal(item)
	if err != nil {
		return corerr.Wrap(corerr.KindDataset, err, "encode item for redis list %q", d.key)
	}
	if err := d.client.RPush(ctx, d.key, data).Err(); err != nil {
		return corerr.Wrap(corerr.KindDataset, err, "rpush to redis list %q", d.key)
	}
	return nil
}

// Read pops and decodes the next item per d's read order: LPOP for FIFO,
// RPOP for LIFO. ok is false when the list is empty.
func (d *Dataset[T]) Read(ctx context.Context) (T, bool, error) {
	var zero T

	var cmd *redis.StringCmd
	if d.order == coredataset.LIFO {
		cmd = d.client.RPop(ctx, d.key)
	} else {
		cmd = d.client.LPop(ctx, d.key)
	}

	data, err := cmd.Result()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, corerr.Wrap(corerr.KindDataset, err, "pop from redis list %q", d.key)
	}

	var item T
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return zero, false, corerr.Wrap(corerr.KindDataset, err, "decode item from redis list %q", d.key)
	}
	return item, true, nil
}

// Len reports the current list length.
func (d *Dataset[T]) Len(ctx context.Context) (int, error) {
	n, err := d.client.LLen(ctx, d.key).Result()
	if err != nil {
		return 0, corerr.Wrap(corerr.KindDataset, err, "llen on redis list %q", d.key)
	}
	return int(n), nil
}
