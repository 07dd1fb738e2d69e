package datasetredis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/corvidlabs/corvid/pkg/coredataset"
)

// newTestClient connects to a local Redis instance and skips the test if
// one isn't reachable; these tests exercise the real wire protocol rather
// than a mock.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("no local redis available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestFIFOOrderPopsLeftFirst(t *testing.T) {
	client := newTestClient(t)
	key := "corvid-test:fifo:" + t.Name()
	defer client.Del(context.Background(), key)

	ds := New[string](client, key, coredataset.FIFO)
	ctx := context.Background()
	for _, v := range []string{"a", "b", "c"} {
		if err := ds.Write(ctx, v); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		got, ok, err := ds.Read(ctx)
		if err != nil || !ok {
			t.Fatalf("Read: got=%q ok=%v err=%v", got, ok, err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if _, ok, _ := ds.Read(ctx); ok {
		t.Error("expected empty dataset to report ok=false")
	}
}

func TestLIFOOrderPopsRightFirst(t *testing.T) {
	client := newTestClient(t)
	key := "corvid-test:lifo:" + t.Name()
	defer client.Del(context.Background(), key)

	ds := New[string](client, key, coredataset.LIFO)
	ctx := context.Background()
	for _, v := range []string{"a", "b", "c"} {
		if err := ds.Write(ctx, v); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	for _, want := range []string{"c", "b", "a"} {
		got, ok, err := ds.Read(ctx)
		if err != nil || !ok {
			t.Fatalf("Read: got=%q ok=%v err=%v", got, ok, err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

func TestLenReflectsWrites(t *testing.T) {
	client := newTestClient(t)
	key := "corvid-test:len:" + t.Name()
	defer client.Del(context.Background(), key)

	ds := New[int](client, key, coredataset.FIFO)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := ds.Write(ctx, i); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	n, err := ds.Len(ctx)
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 5 {
		t.Errorf("got len %d, want 5", n)
	}
}
