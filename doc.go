// Package airportlog resolves airport identifiers typed by pilots and found
// in flight logs against the OurAirports reference catalog, and serves the
// results over Apache Arrow Flight.
//
// The package ties the pieces together:
//   - Engine loads the reference catalog lazily and resolves single
//     identifiers (ResolveOne), flight logs (ResolveLog) and ForeFlight
//     logbook exports (ImportLogbook)
//   - EngineBuilder configures an Engine using a fluent API
//   - NewServer registers the Flight service backed by an Engine on an
//     existing grpc.Server
//
// # Quick Start
//
//	engine, err := airportlog.NewEngineBuilder().
//	    Source(&refdata.HTTPSource{URL: refdata.DefaultDatasetURL}).
//	    DomesticCountry("US").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	config := airportlog.ServerConfig{Engine: engine}
//	grpcServer := grpc.NewServer(airportlog.ServerOptions(config)...)
//	if err := airportlog.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
//
// # Flight Surface
//
// The reference catalog is exposed as the main.airports table through
// ListFlights, GetFlightInfo and DoGet, so DuckDB and other Arrow clients can
// query it directly. Single identifiers resolve through the resolve_airport
// action; flight logs resolve through DoExchange with the resolve_log command.
// See the flight package for the wire details.
//
// # Catalog Lifecycle
//
// The catalog is fetched on the first call that needs it and retained for the
// process lifetime. Failed fetches are not cached; the next call tries again
// and callers see refdata.ErrCatalogUnavailable until one succeeds. The
// server lifecycle (listen, TLS, graceful stop) stays with the caller.
//
// # Logging
//
// Components log through log/slog. ServerConfig.Logger and
// EngineBuilder.Logger default to slog.Default().
//
// # Memory Management
//
// Arrow uses manual reference counting. Callers MUST call Release() on
// records and readers they obtain from the catalog package helpers.
package airportlog
