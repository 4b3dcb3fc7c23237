package airportlog

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/airportlog/flight"
)

// NewServer registers the airportlog Flight service handlers on the
// provided gRPC server.
//
// The function:
//  1. Validates the ServerConfig
//  2. Exposes the engine's reference catalog as main.airports
//  3. Registers the Flight service on grpcServer
//
// Does NOT load the reference catalog and does NOT start the gRPC server;
// the caller controls the lifecycle via grpcServer.Serve().
//
// Example:
//
//	config := airportlog.ServerConfig{Engine: engine}
//	grpcServer := grpc.NewServer(airportlog.ServerOptions(config)...)
//	if err := airportlog.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
func NewServer(grpcServer *grpc.Server, config ServerConfig) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	allocator := config.Allocator
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	logger := config.logger()

	cat := flight.NewCatalog(config.Engine, allocator)
	flightServer := flight.NewServer(config.Engine, cat, allocator, logger, config.Address)
	flight.RegisterFlightServer(grpcServer, flightServer)

	logger.Info("airportlog Flight server registered",
		"address", config.Address,
		"max_message_size", config.MaxMessageSize,
	)
	return nil
}

// validateConfig checks that required ServerConfig fields are valid.
func validateConfig(config ServerConfig) error {
	if config.Engine == nil {
		return fmt.Errorf("engine is required")
	}
	if config.MaxMessageSize < 0 {
		return fmt.Errorf("max message size must be non-negative")
	}
	return nil
}

// ServerOptions returns gRPC server options with the logging and panic
// recovery interceptors installed.
//
// Example:
//
//	opts := airportlog.ServerOptions(config)
//	grpcServer := grpc.NewServer(opts...)
//	airportlog.NewServer(grpcServer, config)
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	logger := config.logger()
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(flight.UnaryServerInterceptor(logger)),
		grpc.StreamInterceptor(flight.StreamServerInterceptor(logger)),
	}

	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}
	return opts
}
