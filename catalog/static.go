package catalog

import (
	"context"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// StaticCatalog is an immutable catalog assembled at startup.
type StaticCatalog struct {
	schemas map[string]*staticSchema
}

// NewStaticCatalog creates an empty static catalog.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		schemas: make(map[string]*staticSchema),
	}
}

// AddSchema adds a schema with the given tables. It is not safe to call
// once the catalog is being served.
func (c *StaticCatalog) AddSchema(name, comment string, tables ...Table) {
	s := &staticSchema{
		name:    name,
		comment: comment,
		tables:  make(map[string]Table, len(tables)),
	}
	for _, t := range tables {
		s.tables[t.Name()] = t
	}
	c.schemas[name] = s
}

// Schemas implements Catalog interface.
func (c *StaticCatalog) Schemas(ctx context.Context) ([]Schema, error) {
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Schema, 0, len(names))
	for _, name := range names {
		result = append(result, c.schemas[name])
	}
	return result, nil
}

// Schema implements Catalog interface.
func (c *StaticCatalog) Schema(ctx context.Context, name string) (Schema, error) {
	schema, ok := c.schemas[name]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return schema, nil
}

// staticSchema is an immutable schema implementation.
type staticSchema struct {
	name    string
	comment string
	tables  map[string]Table
}

// Name implements Schema interface.
func (s *staticSchema) Name() string {
	return s.name
}

// Comment implements Schema interface.
func (s *staticSchema) Comment() string {
	return s.comment
}

// Tables implements Schema interface.
func (s *staticSchema) Tables(ctx context.Context) ([]Table, error) {
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Table, 0, len(names))
	for _, name := range names {
		result = append(result, s.tables[name])
	}
	return result, nil
}

// Table implements Schema interface.
func (s *staticSchema) Table(ctx context.Context, name string) (Table, error) {
	table, ok := s.tables[name]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return table, nil
}

// StaticTable is a table with a fixed schema and a scan function.
type StaticTable struct {
	name     string
	comment  string
	schema   *arrow.Schema
	scanFunc ScanFunc
}

// NewStaticTable creates a static table.
func NewStaticTable(name, comment string, schema *arrow.Schema, scanFunc ScanFunc) *StaticTable {
	return &StaticTable{
		name:     name,
		comment:  comment,
		schema:   schema,
		scanFunc: scanFunc,
	}
}

// Name implements Table interface.
func (t *StaticTable) Name() string {
	return t.name
}

// Comment implements Table interface.
func (t *StaticTable) Comment() string {
	return t.comment
}

// ArrowSchema implements Table interface.
func (t *StaticTable) ArrowSchema(columns []string) *arrow.Schema {
	return ProjectSchema(t.schema, columns)
}

// Scan implements Table interface.
func (t *StaticTable) Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error) {
	return t.scanFunc(ctx, opts)
}

// ProjectSchema returns a projected schema containing only the specified columns.
// If columns is nil or empty, returns the full schema unchanged.
// Column order in the returned schema matches the order in columns slice.
// Original schema metadata is preserved in the projected schema.
func ProjectSchema(schema *arrow.Schema, columns []string) *arrow.Schema {
	if len(columns) == 0 {
		return schema
	}

	fields := make([]arrow.Field, 0, len(columns))
	for _, col := range columns {
		if idx := schema.FieldIndices(col); len(idx) > 0 {
			fields = append(fields, schema.Field(idx[0]))
		}
	}

	if len(fields) == 0 {
		// No matching columns - return original schema
		return schema
	}

	meta := schema.Metadata()
	return arrow.NewSchema(fields, &meta)
}
