package flight

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/airportlog/refdata"
)

// ErrUnknownTable is returned when a descriptor or ticket names a table the
// catalog does not serve.
var ErrUnknownTable = errors.New("unknown table")

// toStatus maps engine errors onto gRPC status codes.
// Errors that already carry a status are returned unchanged.
func toStatus(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Internal
	switch {
	case errors.Is(err, refdata.ErrCatalogUnavailable):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, ErrUnknownTable):
		code = codes.NotFound
	}
	return status.Errorf(code, "%s: %v", op, err)
}
