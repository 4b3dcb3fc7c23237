package airportlog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airportlog/catalog"
	"github.com/hugr-lab/airportlog/flight"
	"github.com/hugr-lab/airportlog/resolve"
)

func airportsTable(t *testing.T, e *Engine, alloc memory.Allocator) catalog.Table {
	t.Helper()
	ctx := context.Background()
	schema, err := flight.NewCatalog(e, alloc).Schema(ctx, catalog.MainSchema)
	if err != nil || schema == nil {
		t.Fatalf("Schema() = %v, %v", schema, err)
	}
	table, err := schema.Table(ctx, catalog.AirportsTable)
	if err != nil || table == nil {
		t.Fatalf("Table() = %v, %v", table, err)
	}
	return table
}

// TestMemoryLeaks uses memory.NewCheckedAllocator to detect leaks in the
// Arrow paths of the engine.
func TestMemoryLeaks(t *testing.T) {
	allocator := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer allocator.AssertSize(t, 0)

	e := newTestEngine(t, &testSource{}, nil)
	ctx := context.Background()

	t.Run("AirportsScan", func(t *testing.T) {
		table := airportsTable(t, e, allocator)
		reader, err := table.Scan(ctx, &catalog.ScanOptions{BatchSize: 2})
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		defer reader.Release()

		rows := 0
		for reader.Next() {
			rows += int(reader.RecordBatch().NumRows())
		}
		if rows != 5 {
			t.Errorf("got %d rows, want 5", rows)
		}
	})

	t.Run("ProjectedScan", func(t *testing.T) {
		table := airportsTable(t, e, allocator)
		reader, err := table.Scan(ctx, &catalog.ScanOptions{Columns: []string{"ident", "location"}, Limit: 1})
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		reader.Release()
	})

	t.Run("ResolvedBatch", func(t *testing.T) {
		res, err := e.ResolveLog(ctx, []resolve.Leg{{Date: "2025-06-01", From: "KRNT", To: "NOL"}}, nil)
		if err != nil {
			t.Fatalf("ResolveLog failed: %v", err)
		}
		rec, err := catalog.BuildResolvedBatch(allocator, res.Airports)
		if err != nil {
			t.Fatalf("BuildResolvedBatch failed: %v", err)
		}
		defer rec.Release()

		got, err := catalog.ReadResolved(rec)
		if err != nil {
			t.Fatalf("ReadResolved failed: %v", err)
		}
		if len(got) != 2 || got[1].HasLocation() {
			t.Errorf("unexpected airports %+v", got)
		}
	})

	t.Run("LegBatch", func(t *testing.T) {
		rec := catalog.BuildLegBatch(allocator, []resolve.Leg{{Date: "2025-06-01", From: "KRNT", To: "KPAE", Route: "KRNT KPAE"}})
		defer rec.Release()
		if _, err := catalog.ReadLegs(rec); err != nil {
			t.Fatalf("ReadLegs failed: %v", err)
		}
	})
}

func TestMemoryLeaksInConcurrentScans(t *testing.T) {
	allocator := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer allocator.AssertSize(t, 0)

	e := newTestEngine(t, &testSource{}, nil)
	table := airportsTable(t, e, allocator)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reader, err := table.Scan(ctx, &catalog.ScanOptions{BatchSize: 1})
			if err != nil {
				t.Errorf("Scan failed: %v", err)
				return
			}
			defer reader.Release()
			for reader.Next() {
				_ = reader.RecordBatch()
			}
		}()
	}
	wg.Wait()
}

// TestNoMemoryLeaksWithErrors checks that failed scans release what they
// allocated.
func TestNoMemoryLeaksWithErrors(t *testing.T) {
	allocator := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer allocator.AssertSize(t, 0)

	src := &testSource{}
	src.fail(errors.New("dataset offline"))
	e := newTestEngine(t, src, nil)
	table := airportsTable(t, e, allocator)

	if _, err := table.Scan(context.Background(), &catalog.ScanOptions{}); err == nil {
		t.Fatal("expected scan to fail while the dataset is offline")
	}

	src.fail(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader, err := table.Scan(ctx, &catalog.ScanOptions{})
	if err == nil {
		reader.Release()
	}
}
