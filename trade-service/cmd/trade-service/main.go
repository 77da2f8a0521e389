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

	"github.com/go-redis/redis_rate/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peng-yewang/YGMall/shared/cache"
	"github.com/peng-yewang/YGMall/shared/config"
	"github.com/peng-yewang/YGMall/shared/discovery"
	"github.com/peng-yewang/YGMall/shared/events/worker"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/postgres"
	"github.com/peng-yewang/YGMall/shared/rabbitmq"
	"github.com/peng-yewang/YGMall/shared/retry"
	"github.com/peng-yewang/YGMall/shared/web"
	"github.com/peng-yewang/YGMall/shared/web/health"
	"github.com/peng-yewang/YGMall/shared/web/middlewares"
	"github.com/peng-yewang/YGMall/trade-service/internal/clients"
	"github.com/peng-yewang/YGMall/trade-service/internal/events/consumers"
	"github.com/peng-yewang/YGMall/trade-service/internal/repository"
	postgres_repo "github.com/peng-yewang/YGMall/trade-service/internal/repository/postgres"
	"github.com/peng-yewang/YGMall/trade-service/internal/router"
	"github.com/peng-yewang/YGMall/trade-service/internal/service"
	sagaworker "github.com/peng-yewang/YGMall/trade-service/internal/worker"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

const (
	serviceName         = "trade-service"
	healthCheckInterval = 15 * time.Second
	checkoutLimitScope  = "checkout"
)

type Config struct {
	config.Server
	config.Postgres
	config.Redis
	config.RabbitMQ
	config.Discovery
	config.RateLimit
	retry.Config

	Relayer  config.MessageRelayer
	Recovery sagaworker.RecoveryConfig
}

type components struct {
	pgDb        *pgxpool.Pool
	redisClient *redis.Client
	broker      *rabbitmq.Client
	orderRepo   *repository.PostgreSQLOrderRepository
	ledger      *service.OrderLedger
	coordinator *service.OrderCoordinator
}

func main() {
	logger := logs.NewSlogLogger("service", serviceName)

	var cfg Config
	if err := config.Load(logger, &cfg); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	registry, err := discovery.ParseEndpoints(cfg.Endpoints)
	if err != nil {
		logger.Error("invalid service endpoints", "error", err)
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

	broker, err := rabbitmq.NewClient(logger, cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("failed to initialize RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer broker.Close()

	orderRepo := repository.NewPostgreSQLOrderRepository(pgDb)
	ledger := service.NewOrderLedger(orderRepo, redisClient, logger)
	collaborators := clients.NewClients(registry, cfg.ClientTimeout, logger)
	coordinator := service.NewOrderCoordinator(
		collaborators.ItemClient,
		collaborators.CartClient,
		ledger,
		orderRepo,
		cfg.Config,
		logger,
	)

	initializeServicesAndWaitForShutdown(logger, cfg, components{
		pgDb:        pgDb,
		redisClient: redisClient,
		broker:      broker,
		orderRepo:   orderRepo,
		ledger:      ledger,
		coordinator: coordinator,
	})
}

func initializeServicesAndWaitForShutdown(logger logs.Logger, cfg Config, c components) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	checkoutLimiter := middlewares.NewRateLimiterMiddleware(
		logger,
		checkoutLimitScope,
		middlewares.RateLimitConfig{Rate: rate.Limit(cfg.Rate), Burst: cfg.Burst},
		redis_rate.NewLimiter(c.redisClient),
		cfg.Enabled,
	)

	g.Go(func() error {
		srv, err := web.InitializeServer(cfg.HTTPPort, router.ConfigRoutes(c.pgDb, c.coordinator, c.ledger, checkoutLimiter, logger), logger)
		if err != nil {
			return err
		}
		return web.StartHTTPServerAndWaitForShutdown(gCtx, srv, logger)
	})

	g.Go(func() error {
		return startGRPCHealthServer(gCtx, logger, cfg.GRPCHealthPort, c)
	})

	g.Go(func() error {
		worker.NewOutboxEventMessageRelayer(
			logger,
			c.broker,
			postgres_repo.NewOutboxEventMessageRelayerRepository(c.pgDb),
			cfg.Relayer.PollInterval,
			cfg.Relayer.BatchSize,
		).Start(gCtx)
		return nil
	})

	g.Go(func() error {
		sagaworker.NewSagaRecoveryWorker(logger, c.orderRepo, c.coordinator, cfg.Recovery).Start(gCtx)
		return nil
	})

	g.Go(func() error {
		paySuccessConsumer := consumers.NewPaySuccessConsumer(logger, c.ledger, c.broker)
		logger.Info("starting PaySuccessConsumer")

		if err := paySuccessConsumer.Start(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("PaySuccessConsumer failed: %w", err)
		}

		logger.Info("PaySuccessConsumer stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("application shut down gracefully")
}

func startGRPCHealthServer(ctx context.Context, logger logs.Logger, port string, c components) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	grpcServer := grpc.NewServer()
	health.StartGRPCHealthCheckService(ctx, grpcServer, logger, serviceName, healthCheckInterval, func(ctx context.Context) error {
		if err := c.pgDb.Ping(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		if err := c.broker.Ping(); err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		return nil
	})

	return web.StartGRPCServerAndWaitForShutdown(ctx, grpcServer, lis, logger)
}
