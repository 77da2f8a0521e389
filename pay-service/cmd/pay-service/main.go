package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peng-yewang/YGMall/pay-service/internal/router"
	"github.com/peng-yewang/YGMall/pay-service/internal/service"
	"github.com/peng-yewang/YGMall/shared/config"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/rabbitmq"
	"github.com/peng-yewang/YGMall/shared/web"
	"github.com/peng-yewang/YGMall/shared/web/health"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const (
	serviceName         = "pay-service"
	healthCheckInterval = 15 * time.Second
)

type Config struct {
	config.Server
	config.RabbitMQ
}

func main() {
	logger := logs.NewSlogLogger("service", serviceName)

	var cfg Config
	if err := config.Load(logger, &cfg); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	broker, err := rabbitmq.NewClient(logger, cfg.URL)
	if err != nil {
		logger.Error("failed to initialize RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer broker.Close()

	initializeServicesAndWaitForShutdown(logger, cfg, broker)
}

func initializeServicesAndWaitForShutdown(logger logs.Logger, cfg Config, broker *rabbitmq.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	payService := service.NewPayService(broker, logger)

	g.Go(func() error {
		srv, err := web.InitializeServer(cfg.HTTPPort, router.ConfigRoutes(broker.Ping, payService, logger), logger)
		if err != nil {
			return err
		}
		return web.StartHTTPServerAndWaitForShutdown(gCtx, srv, logger)
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCHealthPort))
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC: %w", err)
		}

		grpcServer := grpc.NewServer()
		health.StartGRPCHealthCheckService(gCtx, grpcServer, logger, serviceName, healthCheckInterval, func(ctx context.Context) error {
			return broker.Ping()
		})
		return web.StartGRPCServerAndWaitForShutdown(gCtx, grpcServer, lis, logger)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("application shut down gracefully")
}
