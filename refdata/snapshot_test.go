package refdata

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// countingSource counts fetches and optionally fails.
type countingSource struct {
	calls atomic.Int32
	err   error
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Fetch(ctx context.Context) (*Catalog, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return ParseCSV(strings.NewReader(sampleCSV))
}

func TestSnapshotRoundTrip(t *testing.T) {
	c, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV() failed: %v", err)
	}

	data, err := EncodeSnapshot("test", c)
	if err != nil {
		t.Fatalf("EncodeSnapshot() failed: %v", err)
	}

	got, src, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot() failed: %v", err)
	}
	if src != "test" {
		t.Errorf("source = %q, want test", src)
	}
	if got.Len() != c.Len() {
		t.Fatalf("Len() = %d, want %d", got.Len(), c.Len())
	}
	if *got.At(1) != *c.At(1) {
		t.Errorf("record mismatch: %+v vs %+v", got.At(1), c.At(1))
	}
	// NaN must survive the trip so the record stays unmappable.
	if got.At(2).HasLocation() {
		t.Error("expected record 2 to remain without location")
	}
}

func TestDecodeSnapshotGarbage(t *testing.T) {
	if _, _, err := DecodeSnapshot([]byte("garbage")); err == nil {
		t.Fatal("expected error")
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := &FileStore{Path: filepath.Join(t.TempDir(), "cache", "airports.snap")}

	if _, err := store.Get(ctx); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	if err := store.Put(ctx, []byte("one")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if err := store.Put(ctx, []byte("two")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	data, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(data) != "two" {
		t.Errorf("Get() = %q, want two", data)
	}
}

func TestCachedSource(t *testing.T) {
	ctx := context.Background()
	inner := &countingSource{}
	store := &FileStore{Path: filepath.Join(t.TempDir(), "airports.snap")}
	src := &CachedSource{Source: inner, Store: store}

	for i := 0; i < 3; i++ {
		c, err := src.Fetch(ctx)
		if err != nil {
			t.Fatalf("Fetch() #%d failed: %v", i, err)
		}
		if c.Len() != 3 {
			t.Errorf("Fetch() #%d Len() = %d", i, c.Len())
		}
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner source fetched %d times, want 1", n)
	}
}

func TestCachedSourceDamagedSnapshot(t *testing.T) {
	ctx := context.Background()
	inner := &countingSource{}
	store := &FileStore{Path: filepath.Join(t.TempDir(), "airports.snap")}
	if err := store.Put(ctx, []byte("not a snapshot")); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	src := &CachedSource{Source: inner, Store: store}
	if _, err := src.Fetch(ctx); err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if inner.calls.Load() != 1 {
		t.Error("expected fallback to inner source")
	}

	// The damaged snapshot was replaced.
	data, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if _, _, err := DecodeSnapshot(data); err != nil {
		t.Errorf("snapshot not rewritten: %v", err)
	}
}

func TestCachedSourceError(t *testing.T) {
	inner := &countingSource{err: errors.New("boom")}
	src := &CachedSource{Source: inner, Store: &FileStore{Path: filepath.Join(t.TempDir(), "s")}}
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
