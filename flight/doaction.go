package flight

import (
	"context"
	"time"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/hugr-lab/airportlog/internal/msgpack"
	"github.com/hugr-lab/airportlog/resolve"
)

// Action types served by DoAction.
const (
	ActionResolveAirport = "resolve_airport"
	ActionCatalogStats   = "catalog_stats"
	ActionListTables     = "list_tables"
	ActionFlightInfo     = "flight_info"
)

// ResolveRequest is the MessagePack body of a resolve_airport action.
type ResolveRequest struct {
	Input string `msgpack:"input"`
	// Kind is visited, wishlist or fuel. Empty means visited.
	Kind string `msgpack:"kind,omitempty"`
	// Date is the visit date (YYYY-MM-DD). Empty means today.
	Date  string               `msgpack:"date,omitempty"`
	Known []resolve.Membership `msgpack:"known,omitempty"`
}

// TableInfo is one entry of the list_tables reply.
type TableInfo struct {
	Schema  string   `msgpack:"schema"`
	Name    string   `msgpack:"name"`
	Comment string   `msgpack:"comment,omitempty"`
	Columns []string `msgpack:"columns"`
}

// DoAction executes server actions. Every reply is a single Result.
//
//   - resolve_airport: MessagePack ResolveRequest in, resolve.Report out
//   - catalog_stats: refdata.Summary out
//   - list_tables: []TableInfo out
//   - flight_info: {"descriptor": <FlightDescriptor proto>} in, FlightInfo proto out
func (s *Server) DoAction(action *flight.Action, stream flight.FlightService_DoActionServer) error {
	ctx := EnrichContextMetadata(stream.Context())

	s.logger.Debug("DoAction called",
		"type", action.GetType(),
		"body_size", len(action.GetBody()),
		"trace_id", TraceIDFromContext(ctx),
	)

	var (
		body any
		err  error
	)
	switch action.GetType() {
	case ActionResolveAirport:
		body, err = s.resolveAirport(ctx, action)
	case ActionCatalogStats:
		body, err = s.engine.Stats(ctx)
		err = toStatus("catalog stats", err)
	case ActionListTables:
		body, err = s.listTables(ctx)
	case ActionFlightInfo:
		return s.handleFlightInfo(ctx, action, stream)
	default:
		return status.Errorf(codes.Unimplemented, "unknown action type: %s", action.GetType())
	}
	if err != nil {
		return err
	}

	data, err := msgpack.Encode(body)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	return stream.Send(&flight.Result{Body: data})
}

func (s *Server) resolveAirport(ctx context.Context, action *flight.Action) (any, error) {
	var req ResolveRequest
	if err := msgpack.Decode(action.GetBody(), &req); err != nil {
		s.logger.Error("Failed to decode resolve request", "error", err)
		return nil, status.Errorf(codes.InvalidArgument, "invalid parameters: %v", err)
	}

	kind, ok := resolve.ParseKind(req.Kind)
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown airport type %q", req.Kind)
	}
	if req.Date != "" {
		if _, err := time.Parse(time.DateOnly, req.Date); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid date %q: expected YYYY-MM-DD", req.Date)
		}
	}

	out, err := s.engine.ResolveOne(ctx, resolve.Query{
		Input: req.Input,
		Kind:  kind,
		Date:  req.Date,
		Known: resolve.NewKnownSet(req.Known...),
	})
	if err != nil {
		return nil, toStatus("resolve airport", err)
	}

	s.logger.Debug("Airport resolved",
		"input", req.Input,
		"kind", kind,
		"state", out.State.String(),
		"code", out.Code,
	)
	return out.Report(), nil
}

func (s *Server) listTables(ctx context.Context) (any, error) {
	schemas, err := s.catalog.Schemas(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list schemas: %v", err)
	}

	result := make([]TableInfo, 0)
	for _, schema := range schemas {
		tables, err := schema.Tables(ctx)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to list tables: %v", err)
		}
		for _, t := range tables {
			info := TableInfo{Schema: schema.Name(), Name: t.Name(), Comment: t.Comment()}
			for _, f := range t.ArrowSchema(nil).Fields() {
				info.Columns = append(info.Columns, f.Name)
			}
			result = append(result, info)
		}
	}
	return result, nil
}

// handleFlightInfo returns the FlightInfo of a serialized descriptor.
// Clients that can only issue actions use it instead of GetFlightInfo.
func (s *Server) handleFlightInfo(ctx context.Context, action *flight.Action, stream flight.FlightService_DoActionServer) error {
	var request struct {
		Descriptor []byte `msgpack:"descriptor"`
	}
	if err := msgpack.Decode(action.GetBody(), &request); err != nil {
		s.logger.Error("Failed to decode flight_info request", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	desc := &flight.FlightDescriptor{}
	if err := proto.Unmarshal(request.Descriptor, desc); err != nil {
		s.logger.Error("Failed to parse FlightDescriptor", "error", err)
		return status.Errorf(codes.InvalidArgument, "invalid descriptor: %v", err)
	}

	info, err := s.GetFlightInfo(ctx, desc)
	if err != nil {
		return err
	}

	data, err := proto.Marshal(info)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to marshal flight info: %v", err)
	}
	return stream.Send(&flight.Result{Body: data})
}
