package catalog

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Table represents a queryable table with fixed schema.
// Implementations MUST be goroutine-safe.
type Table interface {
	// Name returns the table name (e.g., "airports").
	Name() string

	// Comment returns optional table documentation.
	Comment() string

	// ArrowSchema returns the table schema projected to columns.
	// A nil or empty columns slice returns the full schema.
	ArrowSchema(columns []string) *arrow.Schema

	// Scan executes a scan operation and returns a RecordReader.
	// The reader always carries the full schema; Columns in opts is a hint
	// that lets the table skip filling unrequested columns.
	// Caller MUST call reader.Release() to free memory.
	Scan(ctx context.Context, opts *ScanOptions) (array.RecordReader, error)
}
