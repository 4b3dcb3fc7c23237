// Package flight provides the Arrow Flight RPC handlers of the airport
// resolution service.
//
// Reference tables are exposed through ListFlights, GetFlightInfo and DoGet.
// Single lookups run through DoAction and flight log imports through
// DoExchange.
package flight

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/airportlog/catalog"
	"github.com/hugr-lab/airportlog/refdata"
	"github.com/hugr-lab/airportlog/resolve"
)

// Engine is the resolution surface the handlers call into.
// Implementations MUST be goroutine-safe.
type Engine interface {
	// Catalog returns the reference catalog, loading it on first use.
	Catalog(ctx context.Context) (*refdata.Catalog, error)

	// ResolveOne resolves a single typed airport identifier.
	ResolveOne(ctx context.Context, q resolve.Query) (resolve.Outcome, error)

	// ResolveLog resolves the legs of a flight log.
	ResolveLog(ctx context.Context, legs []resolve.Leg, existing resolve.CodeSet) (resolve.BatchResult, error)

	// Stats summarizes the loaded catalog.
	Stats(ctx context.Context) (refdata.Summary, error)
}

// Server implements the Flight service handlers.
// Embeds BaseFlightServer for forward compatibility with protocol changes.
type Server struct {
	flight.BaseFlightServer

	engine    Engine
	catalog   catalog.Catalog
	allocator memory.Allocator
	logger    *slog.Logger
	address   string // Server's public address for FlightEndpoint locations
}

// NewServer creates a Flight server over engine and the tables of cat.
// The address parameter specifies the server's public address for
// FlightEndpoint locations; empty means "same connection".
func NewServer(engine Engine, cat catalog.Catalog, allocator memory.Allocator, logger *slog.Logger, address string) *Server {
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    engine,
		catalog:   cat,
		allocator: allocator,
		logger:    logger,
		address:   address,
	}
}

// NewCatalog returns the standard table layout served for engine:
// main.airports backed by the reference catalog.
func NewCatalog(engine Engine, allocator memory.Allocator) *catalog.StaticCatalog {
	cat := catalog.NewStaticCatalog()
	cat.AddSchema(catalog.MainSchema, "Airport reference data",
		catalog.NewAirportsTable(engine.Catalog, allocator),
	)
	return cat
}

// RegisterFlightServer registers the Flight service on the provided gRPC server.
// This follows the standard gRPC service registration pattern.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}
