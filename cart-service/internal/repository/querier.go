package repository

import (
	"context"
)

type Querier interface {
	CountCartLinesByUser(ctx context.Context, userID int64) (int64, error)
	CreateCartLine(ctx context.Context, arg CreateCartLineParams) (CartLine, error)
	DeleteCartLine(ctx context.Context, arg DeleteCartLineParams) (int64, error)
	DeleteCartLinesByItemIDs(ctx context.Context, arg DeleteCartLinesByItemIDsParams) ([]CartLine, error)
	IncrementCartLineNum(ctx context.Context, arg IncrementCartLineNumParams) (int64, error)
	InsertCartLineIfAbsent(ctx context.Context, arg CreateCartLineParams) (int64, error)
	ListCartLinesByUser(ctx context.Context, userID int64) ([]CartLine, error)
	LockUserCart(ctx context.Context, userID int64) error
}

var _ Querier = (*Queries)(nil)
