package tone

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSource counts fetches and returns whatever it is primed with
type fakeSource struct {
	rows    []Row
	err     error
	fetches int
}

func (f *fakeSource) FetchRows(ctx context.Context) ([]Row, error) {
	f.fetches++
	return f.rows, f.err
}

func newTestCache(src Source, start time.Time) (*Cache, *time.Time) {
	now := start
	c := NewCache(src)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCacheServesWithinTTL(t *testing.T) {
	src := &fakeSource{rows: sampleRows()}
	c, now := newTestCache(src, time.Now())

	first, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}

	*now = now.Add(59 * time.Minute)
	second, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}

	if src.fetches != 1 {
		t.Errorf("fetches = %d, want 1", src.fetches)
	}
	if first != second {
		t.Error("expected the same cached guide inside the TTL window")
	}
	if !c.Valid() {
		t.Error("cache should report valid inside the TTL window")
	}
}

func TestCacheRefetchesAfterTTL(t *testing.T) {
	src := &fakeSource{rows: sampleRows()}
	c, now := newTestCache(src, time.Now())

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("first Get: %v", err)
	}

	*now = now.Add(61 * time.Minute)
	if c.Valid() {
		t.Error("cache should be stale past the TTL window")
	}
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("second Get: %v", err)
	}

	if src.fetches != 2 {
		t.Errorf("fetches = %d, want 2", src.fetches)
	}
}

func TestCacheDoesNotCacheFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	c, _ := newTestCache(src, time.Now())

	if _, err := c.Get(context.Background()); err == nil {
		t.Fatal("expected an error from a failing source")
	}
	if c.Valid() {
		t.Error("a failed fetch must not populate the cache")
	}

	// Source recovers; the next call retries instead of serving a stale error
	src.err = nil
	src.rows = sampleRows()
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("Get after recovery: %v", err)
	}
	if src.fetches != 2 {
		t.Errorf("fetches = %d, want 2", src.fetches)
	}
}

func TestCacheEmptyDataset(t *testing.T) {
	src := &fakeSource{}
	c, _ := newTestCache(src, time.Now())

	_, err := c.Get(context.Background())
	if !errors.Is(err, ErrNoGuide) {
		t.Fatalf("err = %v, want ErrNoGuide", err)
	}
	if c.Valid() {
		t.Error("an empty dataset must not populate the cache")
	}
}

func TestCacheInvalidate(t *testing.T) {
	src := &fakeSource{rows: sampleRows()}
	c, _ := newTestCache(src, time.Now())

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("first Get: %v", err)
	}

	c.Invalidate()
	if c.Valid() {
		t.Error("cache should be invalid after Invalidate")
	}

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("Get after Invalidate: %v", err)
	}
	if src.fetches != 2 {
		t.Errorf("fetches = %d, want 2", src.fetches)
	}
}
