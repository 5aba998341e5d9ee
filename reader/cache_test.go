package reader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vegasq/screener/table"
)

type countingSource struct {
	calls atomic.Int32
	fail  atomic.Bool
	table *table.Table
}

func (s *countingSource) Load(ctx context.Context) (*table.Table, error) {
	s.calls.Add(1)
	if s.fail.Load() {
		return nil, &LoadError{Location: s.Location(), Err: ErrNotFound}
	}
	return s.table, nil
}

func (s *countingSource) Location() string { return "memory" }

func smallTable(t *testing.T) *table.Table {
	t.Helper()
	b := table.NewBuilder(table.DefaultIdentifier, []string{"ROE"})
	if err := b.Add("AAPL", []float64{1.5}); err != nil {
		t.Fatalf("failed to add row: %v", err)
	}
	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	return tbl
}

func TestCache_LoadsOnce(t *testing.T) {
	src := &countingSource{table: smallTable(t)}
	cache := NewCache(src, nil)

	if _, ok := cache.Loaded(); ok {
		t.Fatal("Loaded() = true before the first Get")
	}

	var wg sync.WaitGroup
	results := make([]*table.Table, 32)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(context.Background())
		}(i)
	}
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Errorf("Load called %d times, want 1", got)
	}
	for i, tbl := range results {
		if errs[i] != nil {
			t.Errorf("Get() #%d error = %v", i, errs[i])
		}
		if tbl != src.table {
			t.Errorf("Get() #%d returned a different table", i)
		}
	}

	if tbl, ok := cache.Loaded(); !ok || tbl != src.table {
		t.Errorf("Loaded() = %p, %v, want the loaded table", tbl, ok)
	}
}

func TestCache_FailureNotCached(t *testing.T) {
	src := &countingSource{table: smallTable(t)}
	src.fail.Store(true)
	cache := NewCache(src, nil)

	_, err := cache.Get(context.Background())
	if !errors.Is(err, ErrLoad) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrLoad and ErrNotFound", err)
	}

	src.fail.Store(false)
	tbl, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() after recovery error = %v", err)
	}
	if tbl != src.table {
		t.Error("Get() returned a different table")
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("Load called %d times, want 2", got)
	}
}

func TestNewStaticCache(t *testing.T) {
	tbl := smallTable(t)
	cache := NewStaticCache(tbl)

	got, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != tbl {
		t.Error("Get() returned a different table")
	}
}
