package db

import (
	"context"

	"github.com/peng-yewang/YGMall/trade-service/internal/repository"
)

type DB interface {
	repository.DBTX
	Ping(ctx context.Context) error
}
