package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/airportlog/internal/recovery"
)

// DoGet streams the rows of a table named by a ticket from EncodeTicket or
// TicketData.Encode. The stream always carries the table's full schema;
// column and limit hints only shrink what the scan fills.
func (s *Server) DoGet(ticket *flight.Ticket, stream flight.FlightService_DoGetServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	td, err := DecodeTicket(ticket.GetTicket())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid ticket: %v", err)
	}
	logger := s.logger.With(
		"schema", td.Schema,
		"table", td.Table,
		"trace_id", TraceIDFromContext(ctx),
	)

	reader, err := s.scan(ctx, td)
	if err != nil {
		logger.Error("Table scan failed", "error", err)
		return err
	}
	defer reader.Release()

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(reader.Schema()))
	defer writer.Close()

	batches, rows, err := copyBatches(ctx, writer, reader)
	if err != nil {
		logger.Error("DoGet aborted", "batches_sent", batches, "rows_sent", rows, "error", err)
		return err
	}

	logger.Debug("DoGet completed", "columns", td.Columns, "limit", td.Limit, "batches", batches, "rows", rows)
	return nil
}

// scan opens a reader for the ticket's table and checks that it carries the
// table's full schema.
func (s *Server) scan(ctx context.Context, td *TicketData) (array.RecordReader, error) {
	table, err := s.lookupTable(ctx, td.Schema, td.Table)
	if err != nil {
		return nil, err
	}

	reader, err := recovery.RecoverToValue(s.logger, "Scan", func() (array.RecordReader, error) {
		return table.Scan(ctx, td.ToScanOptions())
	})
	if err != nil {
		return nil, toStatus("table scan failed", err)
	}

	if want := table.ArrowSchema(nil); !want.Equal(reader.Schema()) {
		reader.Release()
		return nil, status.Errorf(codes.Internal,
			"schema mismatch: table has %d fields, reader has %d fields",
			want.NumFields(), reader.Schema().NumFields())
	}
	return reader, nil
}

// copyBatches writes every batch of reader, stopping when the client goes away.
func copyBatches(ctx context.Context, writer *flight.Writer, reader array.RecordReader) (batches int, rows int64, err error) {
	for reader.Next() {
		if ctx.Err() != nil {
			return batches, rows, status.Error(codes.Canceled, "request cancelled")
		}
		rec := reader.RecordBatch()
		if err := writer.Write(rec); err != nil {
			return batches, rows, status.Errorf(codes.Internal, "failed to write batch %d: %v", batches+1, err)
		}
		batches++
		rows += rec.NumRows()
	}
	if err := reader.Err(); err != nil {
		return batches, rows, toStatus("scan", err)
	}
	return batches, rows, nil
}
