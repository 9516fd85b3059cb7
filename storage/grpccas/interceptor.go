package grpccas

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"xdao.co/unf/internal/logging"
)

// RequestIDHeader is the metadata key a client may set to choose its own
// request id.
const RequestIDHeader = "x-request-id"

// UnaryServerLogger tags each call with a request id (the caller's
// x-request-id, or a fresh UUID) and logs one line per call.
func UnaryServerLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		id := incomingRequestID(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		ctx = logging.WithRequestID(ctx, id)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []logging.Attr{
			logging.String(logging.FieldMethod, info.FullMethod),
			logging.String("code", status.Code(err).String()),
			logging.Duration("elapsed", time.Since(start)),
		}
		logging.WithContext(ctx, logger).Debug("rpc", logging.Args(attrs...)...)
		return resp, err
	}
}

func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(RequestIDHeader); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
