package catalog

import (
	"context"
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/airportlog/refdata"
)

// Names of the reference tables.
const (
	MainSchema    = "main"
	AirportsTable = "airports"
)

// AirportsSchema is the Arrow schema of the reference airports table.
// Every column is nullable so that scans can leave unrequested columns empty.
var AirportsSchema = arrow.NewSchema([]arrow.Field{
	{Name: "seq", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "ident", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "icao_code", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "iata_code", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "local_code", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "gps_code", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "latitude_deg", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "longitude_deg", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "iso_country", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "type", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "municipality", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "iso_region", Type: arrow.BinaryTypes.String, Nullable: true},
	PointField("location"),
}, nil)

// LoadFunc returns the reference catalog, loading it if needed.
type LoadFunc func(ctx context.Context) (*refdata.Catalog, error)

// NewAirportsTable exposes the reference catalog as the airports table.
// The catalog is requested on every scan; load is expected to memoize.
func NewAirportsTable(load LoadFunc, alloc memory.Allocator) *StaticTable {
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	return NewStaticTable(AirportsTable, "OurAirports reference dataset", AirportsSchema,
		func(ctx context.Context, opts *ScanOptions) (array.RecordReader, error) {
			c, err := load(ctx)
			if err != nil {
				return nil, err
			}
			return scanAirports(ctx, alloc, c, opts)
		})
}

func scanAirports(ctx context.Context, alloc memory.Allocator, c *refdata.Catalog, opts *ScanOptions) (array.RecordReader, error) {
	total := int64(c.Len())
	if limit := opts.limit(); limit >= 0 && limit < total {
		total = limit
	}
	size := int64(opts.batchSize())

	var fill [14]bool
	for i, f := range AirportsSchema.Fields() {
		fill[i] = opts.wants(f.Name)
	}

	batches := make([]arrow.RecordBatch, 0, (total+size-1)/size)
	release := func() {
		for _, b := range batches {
			b.Release()
		}
	}

	b := array.NewRecordBuilder(alloc, AirportsSchema)
	defer b.Release()

	for start := int64(0); start < total; start += size {
		if err := ctx.Err(); err != nil {
			release()
			return nil, err
		}
		end := min(start+size, total)
		for i := start; i < end; i++ {
			if err := appendAirport(b, fill[:], c.At(int(i))); err != nil {
				release()
				return nil, fmt.Errorf("airport row %d: %w", i, err)
			}
		}
		batches = append(batches, b.NewRecordBatch())
	}

	rdr, err := array.NewRecordReader(AirportsSchema, batches)
	// The reader retains its own references.
	release()
	return rdr, err
}

func appendAirport(b *array.RecordBuilder, fill []bool, r *refdata.Record) error {
	strs := [...]struct {
		col int
		val string
	}{
		{1, r.Ident}, {2, r.ICAO}, {3, r.IATA}, {4, r.Local}, {5, r.GPS}, {6, r.Name},
		{9, r.Country}, {10, string(r.Classification)}, {11, r.Municipality}, {12, r.Region},
	}

	seq := b.Field(0).(*array.Int64Builder)
	if fill[0] {
		seq.Append(int64(r.Seq))
	} else {
		seq.AppendNull()
	}

	for _, s := range strs {
		sb := b.Field(s.col).(*array.StringBuilder)
		if !fill[s.col] {
			sb.AppendNull()
			continue
		}
		appendString(sb, s.val)
	}

	appendCoordinate(b.Field(7).(*array.Float64Builder), r.Latitude, fill[7])
	appendCoordinate(b.Field(8).(*array.Float64Builder), r.Longitude, fill[8])

	return appendPoint(b.Field(13), r.Location(), fill[13] && r.HasLocation())
}

// appendString appends v, or a null for an empty value.
func appendString(b *array.StringBuilder, v string) {
	if v == "" {
		b.AppendNull()
		return
	}
	b.Append(v)
}

func appendCoordinate(b *array.Float64Builder, v float64, fill bool) {
	if !fill || math.IsNaN(v) || math.IsInf(v, 0) {
		b.AppendNull()
		return
	}
	b.Append(v)
}
