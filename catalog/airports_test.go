package catalog

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airportlog/refdata"
)

func testCatalog(n int) *refdata.Catalog {
	records := []refdata.Record{
		{Ident: "KRNT", IATA: "RNT", Local: "RNT", GPS: "KRNT", ICAO: "KRNT", Name: "Renton Municipal Airport",
			Latitude: 47.4931, Longitude: -122.216, Country: "US", Classification: refdata.SmallAirport,
			Municipality: "Renton", Region: "US-WA"},
		{Ident: "KPAE", IATA: "PAE", Name: "Snohomish County Airport",
			Latitude: 47.9063, Longitude: -122.282, Country: "US", Classification: refdata.MediumAirport},
		{Ident: "US-0001", Name: "Nowhere Strip",
			Latitude: math.NaN(), Longitude: math.NaN(), Country: "US", Classification: refdata.Closed},
	}
	for len(records) < n {
		records = append(records, refdata.Record{Ident: "X", Name: "Filler", Latitude: 1, Longitude: 2})
	}
	return refdata.NewCatalog(records)
}

func staticLoad(c *refdata.Catalog) LoadFunc {
	return func(context.Context) (*refdata.Catalog, error) { return c, nil }
}

func scanAll(t *testing.T, table *StaticTable, opts *ScanOptions) (rows int, batches int, reader array.RecordReader) {
	t.Helper()
	rdr, err := table.Scan(context.Background(), opts)
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	for rdr.Next() {
		rows += int(rdr.RecordBatch().NumRows())
		batches++
	}
	if err := rdr.Err(); err != nil {
		t.Fatalf("reader error: %v", err)
	}
	return rows, batches, rdr
}

func TestAirportsTable_Scan(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	table := NewAirportsTable(staticLoad(testCatalog(0)), mem)
	if table.Name() != AirportsTable {
		t.Errorf("Name() = %s", table.Name())
	}

	rdr, err := table.Scan(context.Background(), nil)
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	defer rdr.Release()

	if !rdr.Schema().Equal(AirportsSchema) {
		t.Fatalf("unexpected schema %s", rdr.Schema())
	}
	if !rdr.Next() {
		t.Fatalf("expected a batch, err=%v", rdr.Err())
	}
	rec := rdr.RecordBatch()
	if rec.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", rec.NumRows())
	}

	ident := rec.Column(1).(*array.String)
	if ident.Value(0) != "KRNT" || ident.Value(2) != "US-0001" {
		t.Errorf("unexpected idents %v", ident)
	}
	if iata := rec.Column(3).(*array.String); !iata.IsNull(2) || iata.Value(1) != "PAE" {
		t.Errorf("unexpected iata column %v", iata)
	}
	if typ := rec.Column(10).(*array.String); typ.Value(2) != "closed" {
		t.Errorf("type = %s, want closed", typ.Value(2))
	}

	lat := rec.Column(7).(*array.Float64)
	if lat.Value(0) != 47.4931 || !lat.IsNull(2) {
		t.Errorf("unexpected latitudes %v", lat)
	}

	if p, ok := PointValue(rec.Column(13), 1); !ok || p.Lat() != 47.9063 || p.Lon() != -122.282 {
		t.Errorf("location row 1 = %v %v", p, ok)
	}
	if !rec.Column(13).IsNull(2) {
		t.Error("record without coordinates should have a null location")
	}
	if rdr.Next() {
		t.Error("expected a single batch")
	}
}

func TestAirportsTable_BatchingAndLimit(t *testing.T) {
	table := NewAirportsTable(staticLoad(testCatalog(10)), nil)

	tests := []struct {
		name        string
		opts        *ScanOptions
		wantRows    int
		wantBatches int
	}{
		{name: "default", opts: nil, wantRows: 10, wantBatches: 1},
		{name: "batch size 3", opts: &ScanOptions{BatchSize: 3}, wantRows: 10, wantBatches: 4},
		{name: "limit", opts: &ScanOptions{BatchSize: 3, Limit: 5}, wantRows: 5, wantBatches: 2},
		{name: "limit above size", opts: &ScanOptions{Limit: 50}, wantRows: 10, wantBatches: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, batches, rdr := scanAll(t, table, tt.opts)
			defer rdr.Release()
			if rows != tt.wantRows || batches != tt.wantBatches {
				t.Errorf("got %d rows in %d batches, want %d in %d", rows, batches, tt.wantRows, tt.wantBatches)
			}
		})
	}
}

func TestAirportsTable_ColumnHint(t *testing.T) {
	table := NewAirportsTable(staticLoad(testCatalog(0)), nil)

	rdr, err := table.Scan(context.Background(), &ScanOptions{Columns: []string{"ident", "location"}})
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	defer rdr.Release()

	if rdr.Schema().NumFields() != AirportsSchema.NumFields() {
		t.Fatal("scan must keep the full schema")
	}
	if !rdr.Next() {
		t.Fatal("expected a batch")
	}
	rec := rdr.RecordBatch()

	if rec.Column(1).NullN() != 0 {
		t.Error("ident should be filled")
	}
	if rec.Column(6).NullN() != 3 {
		t.Error("name should be all null")
	}
	if rec.Column(0).NullN() != 3 {
		t.Error("seq should be all null")
	}
	if rec.Column(13).NullN() != 1 {
		t.Errorf("location nulls = %d, want 1", rec.Column(13).NullN())
	}
}

func TestAirportsTable_LoadError(t *testing.T) {
	want := errors.New("offline")
	table := NewAirportsTable(func(context.Context) (*refdata.Catalog, error) { return nil, want }, nil)

	if _, err := table.Scan(context.Background(), nil); !errors.Is(err, want) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestAirportsTable_Cancelled(t *testing.T) {
	table := NewAirportsTable(staticLoad(testCatalog(10)), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := table.Scan(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
