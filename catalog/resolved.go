package catalog

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"

	"github.com/hugr-lab/airportlog/resolve"
)

// LegSchema is the input schema of the resolve_log exchange.
// Only from and to are required.
var LegSchema = arrow.NewSchema([]arrow.Field{
	{Name: "date", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "from", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "to", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "route", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

// ResolvedSchema is the schema of resolved airport batches.
var ResolvedSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "code", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "type", Type: arrow.BinaryTypes.String, Nullable: false},
	{Name: "source", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "date_visited", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "notes", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "ident", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "iso_country", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "latitude_deg", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "longitude_deg", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	PointField("location"),
}, nil)

// BuildLegBatch encodes legs with LegSchema.
// Caller MUST release the returned batch.
func BuildLegBatch(alloc memory.Allocator, legs []resolve.Leg) arrow.RecordBatch {
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	b := array.NewRecordBuilder(alloc, LegSchema)
	defer b.Release()

	for _, l := range legs {
		appendString(b.Field(0).(*array.StringBuilder), l.Date)
		b.Field(1).(*array.StringBuilder).Append(l.From)
		b.Field(2).(*array.StringBuilder).Append(l.To)
		appendString(b.Field(3).(*array.StringBuilder), l.Route)
	}
	return b.NewRecordBatch()
}

// ReadLegs decodes a batch with the columns of LegSchema. Columns are
// matched by name; extra columns are ignored and route may be absent.
func ReadLegs(rec arrow.RecordBatch) ([]resolve.Leg, error) {
	schema := rec.Schema()
	col := func(name string, required bool) (*array.String, error) {
		idx := schema.FieldIndices(name)
		if len(idx) == 0 {
			if required {
				return nil, fmt.Errorf("leg batch: missing column %q", name)
			}
			return nil, nil
		}
		arr, ok := rec.Column(idx[0]).(*array.String)
		if !ok {
			return nil, fmt.Errorf("leg batch: column %q must be utf8, got %s", name, rec.Column(idx[0]).DataType())
		}
		return arr, nil
	}

	date, err := col("date", false)
	if err != nil {
		return nil, err
	}
	from, err := col("from", true)
	if err != nil {
		return nil, err
	}
	to, err := col("to", true)
	if err != nil {
		return nil, err
	}
	route, err := col("route", false)
	if err != nil {
		return nil, err
	}

	legs := make([]resolve.Leg, 0, rec.NumRows())
	for i := 0; i < int(rec.NumRows()); i++ {
		l := resolve.Leg{
			Date:  stringValue(date, i),
			From:  stringValue(from, i),
			To:    stringValue(to, i),
			Route: stringValue(route, i),
		}
		if l.From == "" || l.To == "" {
			continue
		}
		legs = append(legs, l)
	}
	return legs, nil
}

func stringValue(arr *array.String, i int) string {
	if arr == nil || arr.IsNull(i) {
		return ""
	}
	return arr.Value(i)
}

// BuildResolvedBatch encodes airports with ResolvedSchema.
// Caller MUST release the returned batch.
func BuildResolvedBatch(alloc memory.Allocator, airports []*resolve.Airport) (arrow.RecordBatch, error) {
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	b := array.NewRecordBuilder(alloc, ResolvedSchema)
	defer b.Release()

	for _, a := range airports {
		b.Field(0).(*array.StringBuilder).Append(a.ID.String())
		b.Field(1).(*array.StringBuilder).Append(a.Code)
		appendString(b.Field(2).(*array.StringBuilder), a.Name)
		b.Field(3).(*array.StringBuilder).Append(string(a.Kind))
		appendString(b.Field(4).(*array.StringBuilder), string(a.Source))
		appendString(b.Field(5).(*array.StringBuilder), a.DateVisited)
		appendString(b.Field(6).(*array.StringBuilder), a.Notes)
		appendString(b.Field(7).(*array.StringBuilder), a.Ident)
		appendString(b.Field(8).(*array.StringBuilder), a.Country)
		appendCoordinate(b.Field(9).(*array.Float64Builder), a.Location.Lat(), true)
		appendCoordinate(b.Field(10).(*array.Float64Builder), a.Location.Lon(), true)
		if err := appendPoint(b.Field(11), a.Location, a.HasLocation()); err != nil {
			return nil, fmt.Errorf("airport %s: %w", a.Code, err)
		}
	}
	return b.NewRecordBatch(), nil
}

// ReadResolved decodes a batch written by BuildResolvedBatch.
func ReadResolved(rec arrow.RecordBatch) ([]*resolve.Airport, error) {
	if err := sameColumns(rec.Schema(), ResolvedSchema); err != nil {
		return nil, fmt.Errorf("resolved batch: %w", err)
	}

	str := func(col, i int) string {
		return stringValue(rec.Column(col).(*array.String), i)
	}

	out := make([]*resolve.Airport, 0, rec.NumRows())
	for i := 0; i < int(rec.NumRows()); i++ {
		a := &resolve.Airport{
			Code:        str(1, i),
			Name:        str(2, i),
			Kind:        resolve.Kind(str(3, i)),
			Source:      resolve.Provenance(str(4, i)),
			DateVisited: str(5, i),
			Notes:       str(6, i),
			Ident:       str(7, i),
			Country:     str(8, i),
		}
		id, err := uuid.Parse(str(0, i))
		if err != nil {
			return nil, fmt.Errorf("resolved batch row %d: %w", i, err)
		}
		a.ID = id

		if p, ok := PointValue(rec.Column(11), i); ok {
			a.Location = p
		} else {
			a.Location[0], a.Location[1] = math.NaN(), math.NaN()
		}
		out = append(out, a)
	}
	return out, nil
}

// sameColumns checks names and storage types only; IPC may drop field
// metadata on the way.
func sameColumns(got, want *arrow.Schema) error {
	if got.NumFields() != want.NumFields() {
		return fmt.Errorf("expected %d columns, got %d", want.NumFields(), got.NumFields())
	}
	for i, f := range want.Fields() {
		g := got.Field(i)
		if g.Name != f.Name || !arrow.TypeEqual(storageType(g.Type), storageType(f.Type)) {
			return fmt.Errorf("column %d: expected %s %s, got %s %s", i, f.Name, f.Type, g.Name, g.Type)
		}
	}
	return nil
}

func storageType(dt arrow.DataType) arrow.DataType {
	if ext, ok := dt.(arrow.ExtensionType); ok {
		return ext.StorageType()
	}
	return dt
}
