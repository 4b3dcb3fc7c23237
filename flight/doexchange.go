package flight

import (
	"errors"
	"io"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/airportlog/catalog"
	"github.com/hugr-lab/airportlog/internal/msgpack"
	"github.com/hugr-lab/airportlog/resolve"
)

// OperationResolveLog is the only DoExchange operation.
const OperationResolveLog = "resolve_log"

// ExchangeCommand is the MessagePack payload of the CMD descriptor that
// opens a DoExchange stream.
type ExchangeCommand struct {
	Operation string `msgpack:"op"`
	// Existing codes are skipped; they are the caller's current airports.
	Existing []string `msgpack:"existing,omitempty"`
}

// Encode serializes the command for a FlightDescriptor.
func (c ExchangeCommand) Encode() ([]byte, error) {
	return msgpack.Encode(c)
}

// DoExchange resolves a flight log.
//
// Protocol:
//   - The first message carries a CMD descriptor with an ExchangeCommand
//     and the schema of the leg batches (see catalog.LegSchema).
//   - The client streams leg batches and closes its side.
//   - The server replies with one batch of new airports in
//     catalog.ResolvedSchema. The batch's app metadata holds the
//     MessagePack resolve.BatchStats.
func (s *Server) DoExchange(stream flight.FlightService_DoExchangeServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	reader, err := flight.NewRecordReader(stream, ipc.WithAllocator(s.allocator))
	if errors.Is(err, io.EOF) {
		return status.Error(codes.InvalidArgument, "empty exchange: expected descriptor and leg schema")
	}
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "failed to create record reader: %v", err)
	}
	defer reader.Release()

	desc := reader.LatestFlightDescriptor()
	if desc == nil || desc.GetType() != flight.DescriptorCMD {
		return status.Error(codes.InvalidArgument, "exchange must start with a CMD descriptor")
	}

	var cmd ExchangeCommand
	if err := msgpack.Decode(desc.GetCmd(), &cmd); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid command: %v", err)
	}
	if cmd.Operation != OperationResolveLog {
		return status.Errorf(codes.InvalidArgument, "invalid operation: %q (expected %s)", cmd.Operation, OperationResolveLog)
	}

	s.logger.Debug("DoExchange requested",
		"operation", cmd.Operation,
		"existing", len(cmd.Existing),
		"trace_id", TraceIDFromContext(ctx),
	)

	var legs []resolve.Leg
	batches := 0
	for reader.Next() {
		batch, err := catalog.ReadLegs(reader.RecordBatch())
		if err != nil {
			return status.Errorf(codes.InvalidArgument, "batch %d: %v", batches, err)
		}
		legs = append(legs, batch...)
		batches++
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return toStatus("read legs", err)
	}

	res, err := s.engine.ResolveLog(ctx, legs, resolve.NewCodeSet(cmd.Existing...))
	if err != nil {
		s.logger.Error("Log resolution failed", "legs", len(legs), "error", err)
		return toStatus("resolve log", err)
	}

	rec, err := catalog.BuildResolvedBatch(s.allocator, res.Airports)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to build result: %v", err)
	}
	defer rec.Release()

	stats, err := msgpack.Encode(res.Stats)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to encode stats: %v", err)
	}

	writer := flight.NewRecordWriter(stream, ipc.WithSchema(catalog.ResolvedSchema), ipc.WithAllocator(s.allocator))
	defer writer.Close()

	if err := writer.WriteWithAppMetadata(rec, stats); err != nil {
		return status.Errorf(codes.Internal, "failed to write result: %v", err)
	}

	s.logger.Debug("DoExchange completed",
		"batches", batches,
		"legs", len(legs),
		"airports", len(res.Airports),
	)
	return nil
}
