package catalog

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/array"
)

// DefaultBatchSize is the number of rows per record batch when ScanOptions
// gives no hint.
const DefaultBatchSize = 4096

// ScanOptions provides options for table scans.
type ScanOptions struct {
	// Columns to fill. If nil/empty, fill all columns.
	Columns []string

	// Limit is maximum rows to return.
	// If 0 or negative, no limit.
	Limit int64

	// BatchSize is hint for RecordReader batch size.
	// If 0, DefaultBatchSize is used.
	BatchSize int
}

func (o *ScanOptions) batchSize() int {
	if o == nil || o.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return o.BatchSize
}

func (o *ScanOptions) limit() int64 {
	if o == nil || o.Limit <= 0 {
		return -1
	}
	return o.Limit
}

// wants reports whether column name should be filled.
func (o *ScanOptions) wants(name string) bool {
	if o == nil || len(o.Columns) == 0 {
		return true
	}
	for _, c := range o.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ScanFunc is a function type for table data retrieval.
type ScanFunc func(ctx context.Context, opts *ScanOptions) (array.RecordReader, error)
