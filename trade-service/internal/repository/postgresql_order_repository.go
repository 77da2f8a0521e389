package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/events"
	"github.com/peng-yewang/YGMall/shared/postgres"
	"github.com/peng-yewang/YGMall/trade-service/internal/saga"
)

type PostgreSQLOrderRepository struct {
	*Queries
	db *pgxpool.Pool
}

func NewPostgreSQLOrderRepository(db *pgxpool.Pool) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{
		db:      db,
		Queries: New(db),
	}
}

func (r *PostgreSQLOrderRepository) execTx(ctx context.Context, fn func(*Queries) error) error {
	return postgres.ExecTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(r.WithTx(tx))
	})
}

// CreateOrder stores the header and its details and moves the saga to
// PERSISTED in the same transaction.
func (r *PostgreSQLOrderRepository) CreateOrder(ctx context.Context, sagaID uuid.UUID, arg CreateOrderParams, details []CreateOrderDetailParams) (Order, []OrderDetail, error) {
	var (
		order   Order
		created []OrderDetail
	)
	err := r.execTx(ctx, func(q *Queries) error {
		var err error
		order, err = q.CreateOrder(ctx, arg)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		created = make([]OrderDetail, 0, len(details))
		for _, d := range details {
			d.OrderID = order.ID
			detail, err := q.CreateOrderDetail(ctx, d)
			if err != nil {
				return fmt.Errorf("failed to create order detail for item %d: %w", d.ItemID, err)
			}
			created = append(created, detail)
		}

		return updateSaga(ctx, q, UpdateOrderSagaParams{
			ID:      toPgUUID(sagaID),
			State:   string(saga.StatePersisted),
			OrderID: pgtype.Int8{Int64: order.ID, Valid: true},
		})
	})
	if err != nil {
		return Order{}, nil, err
	}
	return order, created, nil
}

// MarkPaid flips an UNPAID order to PAID. updated is false when the order is
// missing or no longer UNPAID.
func (r *PostgreSQLOrderRepository) MarkPaid(ctx context.Context, orderID int64) (order Order, updated bool, err error) {
	err = r.execTx(ctx, func(q *Queries) error {
		order, err = q.MarkOrderPaid(ctx, orderID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}
		updated = true

		return insertOutboxEvent(ctx, q, order.ID, events.OrderPaidEventName, events.OrderPaidEvent{
			OrderID: order.ID,
			UserID:  order.UserID,
			PaidAt:  order.PayTime.Time,
		})
	})
	return order, updated, err
}

// CancelOrder flips an UNPAID order to CANCELLED. updated is false when the
// order is missing or no longer UNPAID.
func (r *PostgreSQLOrderRepository) CancelOrder(ctx context.Context, orderID int64, reason string) (order Order, updated bool, err error) {
	err = r.execTx(ctx, func(q *Queries) error {
		order, err = q.CancelOrder(ctx, orderID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}
		updated = true

		return insertOutboxEvent(ctx, q, order.ID, events.OrderCancelledEventName, events.OrderCancelledEvent{
			OrderID: order.ID,
			UserID:  order.UserID,
			Reason:  reason,
		})
	})
	return order, updated, err
}

func (r *PostgreSQLOrderRepository) BeginSaga(ctx context.Context, userID int64, lines []contracts.StockLine) (saga.Saga, error) {
	encodedLines, err := json.Marshal(lines)
	if err != nil {
		return saga.Saga{}, fmt.Errorf("failed to marshal saga lines: %w", err)
	}

	row, err := r.Queries.CreateOrderSaga(ctx, CreateOrderSagaParams{
		ID:     toPgUUID(uuid.New()),
		UserID: userID,
		State:  string(saga.StatePricing),
		Lines:  encodedLines,
	})
	if err != nil {
		return saga.Saga{}, fmt.Errorf("failed to create order saga: %w", err)
	}
	return toSaga(row)
}

func (r *PostgreSQLOrderRepository) MarkCartCleared(ctx context.Context, id uuid.UUID, removed []contracts.CartLineDTO) error {
	encoded, err := json.Marshal(removed)
	if err != nil {
		return fmt.Errorf("failed to marshal removed cart lines: %w", err)
	}
	return updateSaga(ctx, r.Queries, UpdateOrderSagaParams{
		ID:               toPgUUID(id),
		State:            string(saga.StateCartCleared),
		RemovedCartLines: encoded,
	})
}

// CompleteSaga records STOCK_DECREMENTED and queues order.created together.
// It fails with saga.ErrTransitionLost when compensation already started.
func (r *PostgreSQLOrderRepository) CompleteSaga(ctx context.Context, id uuid.UUID, order contracts.OrderView) error {
	return r.execTx(ctx, func(q *Queries) error {
		if err := updateSaga(ctx, q, UpdateOrderSagaParams{
			ID:    toPgUUID(id),
			State: string(saga.StateStockDecremented),
		}); err != nil {
			return err
		}

		items := make([]events.OrderItem, len(order.Details))
		for i, d := range order.Details {
			items[i] = events.OrderItem{ItemID: d.ItemID, Quantity: int(d.Num)}
		}
		return insertOutboxEvent(ctx, q, order.ID, events.OrderCreatedEventName, events.OrderCreatedEvent{
			OrderID:  order.ID,
			UserID:   order.UserID,
			TotalFee: order.TotalFee,
			Items:    items,
		})
	})
}

func (r *PostgreSQLOrderRepository) MarkCompensating(ctx context.Context, id uuid.UUID, reason string) error {
	return updateSaga(ctx, r.Queries, UpdateOrderSagaParams{
		ID:            toPgUUID(id),
		State:         string(saga.StateCompensating),
		FailureReason: pgtype.Text{String: reason, Valid: true},
	})
}

func (r *PostgreSQLOrderRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return updateSaga(ctx, r.Queries, UpdateOrderSagaParams{
		ID:            toPgUUID(id),
		State:         string(saga.StateFailed),
		FailureReason: pgtype.Text{String: reason, Valid: reason != ""},
	})
}

func (r *PostgreSQLOrderRepository) ListStaleSagas(ctx context.Context, updatedBefore time.Time, limit int32) ([]saga.Saga, error) {
	rows, err := r.Queries.ListStaleOrderSagas(ctx, ListStaleOrderSagasParams{
		UpdatedBefore: pgtype.Timestamptz{Time: updatedBefore, Valid: true},
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list stale sagas: %w", err)
	}

	sagas := make([]saga.Saga, 0, len(rows))
	for _, row := range rows {
		s, err := toSaga(row)
		if err != nil {
			return nil, err
		}
		sagas = append(sagas, s)
	}
	return sagas, nil
}

// updateSaga moves a saga to arg.State only from the states allowed to lead
// there. Zero affected rows means another writer got there first, or the saga
// does not exist.
func updateSaga(ctx context.Context, q *Queries, arg UpdateOrderSagaParams) error {
	target := saga.State(arg.State)
	for _, from := range saga.Sources(target) {
		arg.FromStates = append(arg.FromStates, string(from))
	}

	n, err := q.UpdateOrderSaga(ctx, arg)
	if err != nil {
		return fmt.Errorf("failed to move saga to %s: %w", arg.State, err)
	}
	if n == 0 {
		return fmt.Errorf("saga %s cannot move to %s: %w", uuid.UUID(arg.ID.Bytes), target, saga.ErrTransitionLost)
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, q *Queries, orderID int64, eventName string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", eventName, err)
	}

	err = q.CreateOutboxEvent(ctx, CreateOutboxEventParams{
		ID:          toPgUUID(uuid.New()),
		AggregateID: strconv.FormatInt(orderID, 10),
		EventName:   eventName,
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

func toSaga(row OrderSaga) (saga.Saga, error) {
	s := saga.Saga{
		ID:            uuid.UUID(row.ID.Bytes),
		UserID:        row.UserID,
		State:         saga.State(row.State),
		OrderID:       row.OrderID.Int64,
		FailureReason: row.FailureReason.String,
		UpdatedAt:     row.UpdatedAt.Time,
	}
	if err := json.Unmarshal(row.Lines, &s.Lines); err != nil {
		return saga.Saga{}, fmt.Errorf("failed to decode saga lines: %w", err)
	}
	if len(row.RemovedCartLines) > 0 {
		if err := json.Unmarshal(row.RemovedCartLines, &s.RemovedCartLines); err != nil {
			return saga.Saga{}, fmt.Errorf("failed to decode removed cart lines: %w", err)
		}
	}
	return s, nil
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
