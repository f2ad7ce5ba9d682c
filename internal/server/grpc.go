package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/foc-extractor/internal/common"
)

// NewGRPCServer registers svc and the standard health service. The returned health
// server reports SERVING for both the empty name and ServiceName.
func NewGRPCServer(svc ExtractionServer, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(requestLogger(logger)))
	gs := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	RegisterExtractionServer(gs, svc)
	return gs, hs
}

func requestLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		reqID := uuid.NewString()
		ctx = common.WithRequestID(ctx, reqID)
		ctx = common.WithLogger(ctx, logger.With("method", info.FullMethod))

		resp, err := handler(ctx, req)

		l := common.LoggerFromContext(ctx, logger)
		attrs := []any{"elapsed_ms", time.Since(start).Milliseconds()}
		if err != nil {
			l.Warn("grpc.request.failed", append(attrs, "code", status.Code(err).String(), "error", err)...)
		} else {
			l.Debug("grpc.request.ok", attrs...)
		}
		return resp, err
	}
}
