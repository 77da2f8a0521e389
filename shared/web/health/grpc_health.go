package health

import (
	"context"
	"time"

	"github.com/peng-yewang/YGMall/shared/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

type CheckFunc func(ctx context.Context) error

const checkTimeout = 3 * time.Second

// StartGRPCHealthCheckService registers the standard health service and keeps
// the serving status of service in line with check, re-evaluated every
// interval until ctx ends.
func StartGRPCHealthCheckService(ctx context.Context, grpcServer *grpc.Server, logger logs.Logger, service string, interval time.Duration, check CheckFunc) *health.Server {
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			UpdateStatus(ctx, healthServer, logger, service, check)
			select {
			case <-ctx.Done():
				healthServer.Shutdown()
				return
			case <-ticker.C:
			}
		}
	}()

	return healthServer
}

func UpdateStatus(ctx context.Context, healthServer *health.Server, logger logs.Logger, service string, check CheckFunc) {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := check(checkCtx); err != nil {
		logger.Warn("service is not healthy", "service", service, "error", err)
		healthServer.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		return
	}
	healthServer.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
}
