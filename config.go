package airportlog

import (
	"errors"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ServerConfig contains configuration for the airportlog Flight server.
type ServerConfig struct {
	// Engine resolves identifiers and serves the reference catalog.
	// REQUIRED: MUST NOT be nil.
	Engine *Engine

	// Allocator for Arrow memory management.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	// Note: If LogLevel is specified, a new logger will be created with that level.
	Logger *slog.Logger

	// LogLevel sets the logging level.
	// OPTIONAL: If nil, uses Info level.
	// If Logger is also provided, LogLevel is ignored (use pre-configured logger).
	LogLevel *slog.Level

	// MaxMessageSize sets maximum gRPC message size in bytes.
	// OPTIONAL: If 0, uses gRPC default (4MB).
	// Recommended: 16MB for flight logs with many legs.
	MaxMessageSize int

	// Address is the server's public address (e.g., "localhost:50051").
	// OPTIONAL: If empty, FlightEndpoint locations will not include URI.
	Address string
}

// Standard errors returned by the airportlog package.
var (
	// ErrInvalidConfig indicates ServerConfig or EngineBuilder validation failed.
	ErrInvalidConfig = errors.New("invalid config")
)

// logger returns the configured logger, building one for LogLevel when
// no Logger is set.
func (c ServerConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	if c.LogLevel == nil {
		return slog.Default()
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: *c.LogLevel,
	})
	return slog.New(handler)
}
