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

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peng-yewang/YGMall/item-service/internal/repository"
	"github.com/peng-yewang/YGMall/item-service/internal/router"
	"github.com/peng-yewang/YGMall/item-service/internal/service"
	"github.com/peng-yewang/YGMall/shared/cache"
	"github.com/peng-yewang/YGMall/shared/config"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/postgres"
	"github.com/peng-yewang/YGMall/shared/web"
	"github.com/peng-yewang/YGMall/shared/web/health"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const (
	serviceName         = "item-service"
	healthCheckInterval = 15 * time.Second
)

type Config struct {
	config.Server
	config.Postgres
	config.Redis
}

func main() {
	logger := logs.NewSlogLogger("service", serviceName)

	var cfg Config
	if err := config.Load(logger, &cfg); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pgDb, err := postgres.InitializePostgresDB(cfg.Postgres)
	if err != nil {
		logger.Error("error connecting to database", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected successfully")
	defer pgDb.Close()

	redisClient, err := cache.InitializeRedisClient(cfg.Redis)
	if err != nil {
		logger.Error("error connecting to redis", "error", err)
		os.Exit(1)
	}
	logger.Info("redis connected successfully")
	defer redisClient.Close()

	initializeServicesAndWaitForShutdown(logger, cfg, pgDb, redisClient)
}

func initializeServicesAndWaitForShutdown(logger logs.Logger, cfg Config, pgDb *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	itemService := service.NewItemService(repository.NewPostgreSQLInventoryRepository(pgDb), redisClient, logger)

	g.Go(func() error {
		srv, err := web.InitializeServer(cfg.HTTPPort, router.ConfigRoutes(pgDb, itemService, logger), logger)
		if err != nil {
			return err
		}
		return web.StartHTTPServerAndWaitForShutdown(gCtx, srv, logger)
	})

	g.Go(func() error {
		return startGRPCHealthServer(gCtx, logger, cfg.GRPCHealthPort, pgDb, redisClient)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("application shut down gracefully")
}

func startGRPCHealthServer(ctx context.Context, logger logs.Logger, port string, pgDb *pgxpool.Pool, redisClient *redis.Client) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	grpcServer := grpc.NewServer()
	health.StartGRPCHealthCheckService(ctx, grpcServer, logger, serviceName, healthCheckInterval, func(ctx context.Context) error {
		if err := pgDb.Ping(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	return web.StartGRPCServerAndWaitForShutdown(ctx, grpcServer, lis, logger)
}
