package repository

import (
	"context"
)

type Querier interface {
	CancelOrder(ctx context.Context, id int64) (Order, error)
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	CreateOrderDetail(ctx context.Context, arg CreateOrderDetailParams) (OrderDetail, error)
	CreateOrderSaga(ctx context.Context, arg CreateOrderSagaParams) (OrderSaga, error)
	CreateOutboxEvent(ctx context.Context, arg CreateOutboxEventParams) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	GetUnpublishedOutboxEvents(ctx context.Context, limit int32) ([]OutboxEvent, error)
	ListOrderDetails(ctx context.Context, orderID int64) ([]OrderDetail, error)
	ListStaleOrderSagas(ctx context.Context, arg ListStaleOrderSagasParams) ([]OrderSaga, error)
	MarkOrderPaid(ctx context.Context, id int64) (Order, error)
	UpdateOrderSaga(ctx context.Context, arg UpdateOrderSagaParams) (int64, error)
	UpdateOutboxEventStatus(ctx context.Context, arg UpdateOutboxEventStatusParams) error
}

var _ Querier = (*Queries)(nil)
