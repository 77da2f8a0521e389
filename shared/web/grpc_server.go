package web

import (
	"context"
	"fmt"
	"net"

	"github.com/peng-yewang/YGMall/shared/logs"
	"google.golang.org/grpc"
)

func StartGRPCServerAndWaitForShutdown(ctx context.Context, grpcServer *grpc.Server, lis net.Listener, logger logs.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("failed to serve gRPC: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down gRPC server")
	grpcServer.GracefulStop()
	logger.Info("shutdown complete")
	return nil
}
