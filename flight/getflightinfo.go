package flight

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GetFlightInfo describes a table scan. The descriptor must be a PATH of
// [schema_name, table_name], e.g. ["main", "airports"].
func (s *Server) GetFlightInfo(ctx context.Context, desc *flight.FlightDescriptor) (*flight.FlightInfo, error) {
	schemaName, tableName, err := tablePath(desc)
	if err != nil {
		return nil, err
	}

	table, err := s.lookupTable(ctx, schemaName, tableName)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("GetFlightInfo", "schema", schemaName, "table", tableName)
	return s.flightInfo(desc, schemaName, table)
}

func tablePath(desc *flight.FlightDescriptor) (string, string, error) {
	if desc.GetType() != flight.DescriptorPATH {
		return "", "", status.Error(codes.InvalidArgument, "descriptor must be PATH type")
	}
	path := desc.GetPath()
	if len(path) != 2 {
		return "", "", status.Error(codes.InvalidArgument, "path must contain exactly 2 elements: [schema_name, table_name]")
	}
	return path[0], path[1], nil
}
