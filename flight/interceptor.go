package flight

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/airportlog/internal/recovery"
)

// UnaryServerInterceptor enriches the request context, recovers handler
// panics and logs every call at Debug.
func UnaryServerInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		ctx = EnrichContextMetadata(ctx)
		start := time.Now()

		err = recovery.RecoverToError(logger, info.FullMethod, func() error {
			var herr error
			resp, herr = handler(ctx, req)
			return herr
		})

		logCall(ctx, logger, info.FullMethod, start, err)
		return resp, err
	}
}

// StreamServerInterceptor is the streaming counterpart of
// UnaryServerInterceptor.
func StreamServerInterceptor(logger *slog.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx := EnrichContextMetadata(ss.Context())
		wrappedStream := &wrappedServerStream{
			ServerStream: ss,
			ctx:          ctx,
		}
		start := time.Now()

		err := recovery.RecoverToError(logger, info.FullMethod, func() error {
			return handler(srv, wrappedStream)
		})

		logCall(ctx, logger, info.FullMethod, start, err)
		return err
	}
}

func logCall(ctx context.Context, logger *slog.Logger, method string, start time.Time, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Flight call",
		"method", method,
		"trace_id", TraceIDFromContext(ctx),
		"session_id", SessionIDFromContext(ctx),
		"code", status.Code(err).String(),
		"elapsed", time.Since(start),
	)
}

// wrappedServerStream wraps grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapper's custom context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
