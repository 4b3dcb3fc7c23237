package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/airportlog/catalog"
)

// ListFlights returns one FlightInfo per table in the catalog, ordered by
// schema then table name. Criteria is ignored.
func (s *Server) ListFlights(criteria *flight.Criteria, stream flight.FlightService_ListFlightsServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	s.logger.Debug("ListFlights called", "trace_id", TraceIDFromContext(ctx))

	schemas, err := s.catalog.Schemas(ctx)
	if err != nil {
		s.logger.Error("Failed to list schemas", "error", err)
		return status.Errorf(codes.Internal, "failed to list schemas: %v", err)
	}

	sent := 0
	for _, schema := range schemas {
		tables, err := schema.Tables(ctx)
		if err != nil {
			s.logger.Error("Failed to list tables", "schema", schema.Name(), "error", err)
			return status.Errorf(codes.Internal, "failed to list tables: %v", err)
		}
		for _, table := range tables {
			desc := &flight.FlightDescriptor{
				Type: flight.DescriptorPATH,
				Path: []string{schema.Name(), table.Name()},
			}
			info, err := s.flightInfo(desc, schema.Name(), table)
			if err != nil {
				return err
			}
			if err := stream.Send(info); err != nil {
				s.logger.Error("Failed to send FlightInfo", "error", err)
				return status.Errorf(codes.Internal, "failed to send flight info: %v", err)
			}
			sent++
		}
	}

	s.logger.Debug("ListFlights completed", "flights", sent)
	return nil
}

// lookupTable resolves schema and table names against the catalog.
func (s *Server) lookupTable(ctx context.Context, schemaName, tableName string) (catalog.Table, error) {
	schema, err := s.catalog.Schema(ctx, schemaName)
	if err != nil {
		s.logger.Error("Failed to get schema from catalog",
			"schema", schemaName,
			"error", err,
		)
		return nil, status.Errorf(codes.Internal, "failed to get schema: %v", err)
	}
	if schema == nil {
		return nil, status.Errorf(codes.NotFound, "schema not found: %s", schemaName)
	}

	table, err := schema.Table(ctx, tableName)
	if err != nil {
		s.logger.Error("Failed to get table from schema",
			"schema", schemaName,
			"table", tableName,
			"error", err,
		)
		return nil, status.Errorf(codes.Internal, "failed to get table: %v", err)
	}
	if table == nil {
		return nil, status.Errorf(codes.NotFound, "table not found: %s.%s", schemaName, tableName)
	}
	return table, nil
}

// flightInfo describes a table scan: full schema plus a single endpoint
// carrying the ticket.
func (s *Server) flightInfo(desc *flight.FlightDescriptor, schemaName string, table catalog.Table) (*flight.FlightInfo, error) {
	arrowSchema := table.ArrowSchema(nil)
	if arrowSchema == nil {
		s.logger.Error("Table returned nil Arrow schema",
			"schema", schemaName,
			"table", table.Name(),
		)
		return nil, status.Errorf(codes.Internal, "table %s.%s has nil Arrow schema", schemaName, table.Name())
	}

	ticket, err := EncodeTicket(schemaName, table.Name())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode ticket: %v", err)
	}

	endpoint := &flight.FlightEndpoint{
		Ticket: &flight.Ticket{Ticket: ticket},
	}
	if s.address != "" {
		endpoint.Location = []*flight.Location{{Uri: s.address}}
	}

	return &flight.FlightInfo{
		Schema:           flight.SerializeSchema(arrowSchema, s.allocator),
		FlightDescriptor: desc,
		Endpoint:         []*flight.FlightEndpoint{endpoint},
		TotalRecords:     -1, // Unknown until scan
		TotalBytes:       -1, // Unknown until scan
	}, nil
}
