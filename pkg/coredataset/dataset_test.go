package coredataset

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestInMemoryDatasetFIFOOrder(t *testing.T) {
	ctx := context.Background()
	d := NewInMemoryDataset[string](FIFO)
	for _, s := range []string{"a", "b", "c"} {
		if err := d.Write(ctx, s); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	for _, want := range []string{"a", "b", "c"} {
		got, ok, err := d.Read(ctx)
		if err != nil || !ok {
			t.Fatalf("Read: got=%q ok=%v err=%v", got, ok, err)
		}
		if got != want {
			t.Errorf("FIFO order: want %q, got %q", want, got)
		}
	}
	if _, ok, _ := d.Read(ctx); ok {
		t.Error("Read on empty dataset should return ok=false")
	}
}

func TestInMemoryDatasetLIFOOrder(t *testing.T) {
	ctx := context.Background()
	d := NewInMemoryDataset[int](LIFO)
	for _, n := range []int{1, 2, 3} {
		_ = d.Write(ctx, n)
	}
	for _, want := range []int{3, 2, 1} {
		got, ok, _ := d.Read(ctx)
		if !ok || got != want {
			t.Errorf("LIFO order: want %d, got %d (ok=%v)", want, got, ok)
		}
	}
}

func TestInMemoryDatasetLen(t *testing.T) {
	ctx := context.Background()
	d := NewInMemoryDataset[int](FIFO)
	if n, _ := d.Len(ctx); n != 0 {
		t.Fatalf("empty dataset len = %d, want 0", n)
	}
	_ = d.Write(ctx, 1)
	_ = d.Write(ctx, 2)
	if n, _ := d.Len(ctx); n != 2 {
		t.Fatalf("len = %d, want 2", n)
	}
	_, _, _ = d.Read(ctx)
	if n, _ := d.Len(ctx); n != 1 {
		t.Fatalf("len after one read = %d, want 1", n)
	}
}

func TestRegistryLazyDefaultIsStable(t *testing.T) {
	r := NewRegistry()
	if Has[string](r) {
		t.Fatal("fresh registry should not have a string dataset yet")
	}
	first := Get[string](r)
	if !Has[string](r) {
		t.Fatal("Get should register a lazily created dataset")
	}
	second := Get[string](r)
	if first != second {
		t.Error("repeated Get[T] should return the same dataset instance")
	}
}

func TestRegistrySetReplacesWithoutMigratingItems(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	original := Get[int](r)
	_ = original.Write(ctx, 42)

	replacement := NewInMemoryDataset[int](FIFO)
	Set[int](r, replacement)

	if n, _ := Get[int](r).Len(ctx); n != 0 {
		t.Errorf("replacement dataset should start empty, got len %d", n)
	}
	if n, _ := original.Len(ctx); n != 1 {
		t.Errorf("original dataset's own items should be untouched, got len %d", n)
	}
	if Get[int](r) != Dataset[int](replacement) {
		t.Error("Get after Set should return the replacement instance")
	}
}

func TestRegistryIsolatesDifferentTypes(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()
	_ = Get[int](r).Write(ctx, 1)
	_ = Get[string](r).Write(ctx, "x")

	if n, _ := Get[int](r).Len(ctx); n != 1 {
		t.Errorf("int dataset len = %d, want 1", n)
	}
	if n, _ := Get[string](r).Len(ctx); n != 1 {
		t.Errorf("string dataset len = %d, want 1", n)
	}
}

func TestMapDataViewsUnderlyingStorage(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryDataset[int](FIFO)
	view := MapData[int, string](inner,
		func(s string) int { return len(s) },
		func(n int) string { return fmt.Sprintf("len=%d", n) },
	)
	if err := view.Write(ctx, "abc"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n, _ := inner.Len(ctx); n != 1 {
		t.Fatalf("underlying dataset should receive the mapped item, len=%d", n)
	}
	got, ok, err := view.Read(ctx)
	if err != nil || !ok {
		t.Fatalf("Read: got=%q ok=%v err=%v", got, ok, err)
	}
	if got != "len=3" {
		t.Errorf("got %q, want %q", got, "len=3")
	}
}

func TestMapErrRewritesErrors(t *testing.T) {
	ctx := context.Background()
	sentinel := errors.New("boom")
	d := MapErr[int](&failingDataset{err: sentinel}, func(err error) error {
		return fmt.Errorf("wrapped: %w", err)
	})
	_, _, err := d.Read(ctx)
	if err == nil || !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped sentinel error, got %v", err)
	}
}

type failingDataset struct{ err error }

func (f *failingDataset) Write(context.Context, int) error { return f.err }
func (f *failingDataset) Read(context.Context) (int, bool, error) {
	return 0, false, f.err
}
func (f *failingDataset) Len(context.Context) (int, error) { return 0, f.err }
