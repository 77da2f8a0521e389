package repository

import (
	"context"
)

type Querier interface {
	CreateStockDeduction(ctx context.Context, arg CreateStockDeductionParams) (int64, error)
	DeductItemStock(ctx context.Context, arg ItemStockParams) (int64, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	GetItemsByIDs(ctx context.Context, ids []int64) ([]Item, error)
	GetStockDeductionForUpdate(ctx context.Context, orderID int64) (StockDeduction, error)
	RestoreItemStock(ctx context.Context, arg ItemStockParams) (int64, error)
	UpdateItem(ctx context.Context, arg UpdateItemParams) (Item, error)
	UpdateStockDeductionStatus(ctx context.Context, arg UpdateStockDeductionStatusParams) error
}

var _ Querier = (*Queries)(nil)
