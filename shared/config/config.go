package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/peng-yewang/YGMall/shared/logs"
)

type Server struct {
	HTTPPort       string `envconfig:"HTTP_PORT" default:"8080"`
	GRPCHealthPort string `envconfig:"GRPC_HEALTH_PORT" default:"9090"`
}

type Postgres struct {
	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	MigrationsDir string `envconfig:"MIGRATIONS_DIR" default:"/migrations"`
}

type Redis struct {
	URL string `envconfig:"REDIS_URL" required:"true"`
}

type RabbitMQ struct {
	URL string `envconfig:"RABBITMQ_URL" required:"true"`
}

// Discovery lists instances per logical service name, formatted as
// "item-service=http://item-1:8080|http://item-2:8080,cart-service=http://cart:8080".
type Discovery struct {
	Endpoints     string        `envconfig:"SERVICE_ENDPOINTS"`
	ClientTimeout time.Duration `envconfig:"SERVICE_CLIENT_TIMEOUT" default:"5s"`
}

type MessageRelayer struct {
	PollInterval time.Duration `envconfig:"MESSAGE_RELAYER_POLL_INTERVAL" default:"5s"`
	BatchSize    int32         `envconfig:"MESSAGE_RELAYER_BATCH_SIZE" default:"25"`
}

type RateLimit struct {
	Enabled bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	Rate    int  `envconfig:"CHECKOUT_RATE_LIMIT" default:"5"`
	Burst   int  `envconfig:"CHECKOUT_RATE_BURST" default:"10"`
}

// Load reads an optional .env file and then fills spec from the environment.
func Load(logger logs.Logger, spec any) error {
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded environment variables from .env file")
	} else {
		logger.Info("no .env file found, using environment variables")
	}

	return envconfig.Process("", spec)
}
