package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderSagaColumns = `id, user_id, state, order_id, lines, removed_cart_lines, failure_reason, created_at, updated_at`

func scanOrderSaga(row rowScanner) (OrderSaga, error) {
	var s OrderSaga
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.State,
		&s.OrderID,
		&s.Lines,
		&s.RemovedCartLines,
		&s.FailureReason,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

const createOrderSaga = `
INSERT INTO order_sagas (id, user_id, state, lines)
VALUES ($1, $2, $3, $4)
RETURNING ` + orderSagaColumns

type CreateOrderSagaParams struct {
	ID     pgtype.UUID `json:"id"`
	UserID int64       `json:"userId"`
	State  string      `json:"state"`
	Lines  []byte      `json:"lines"`
}

func (q *Queries) CreateOrderSaga(ctx context.Context, arg CreateOrderSagaParams) (OrderSaga, error) {
	row := q.db.QueryRow(ctx, createOrderSaga, arg.ID, arg.UserID, arg.State, arg.Lines)
	return scanOrderSaga(row)
}

const updateOrderSaga = `
UPDATE order_sagas SET
    state = $2,
    order_id = COALESCE($3, order_id),
    removed_cart_lines = COALESCE($4, removed_cart_lines),
    failure_reason = COALESCE($5, failure_reason),
    updated_at = NOW()
WHERE id = $1 AND state = ANY($6::text[])
`

// UpdateOrderSagaParams leaves a column untouched when its value is NULL.
// The row only changes while its state is one of FromStates.
type UpdateOrderSagaParams struct {
	ID               pgtype.UUID `json:"id"`
	State            string      `json:"state"`
	OrderID          pgtype.Int8 `json:"orderId"`
	RemovedCartLines []byte      `json:"removedCartLines"`
	FailureReason    pgtype.Text `json:"failureReason"`
	FromStates       []string    `json:"fromStates"`
}

func (q *Queries) UpdateOrderSaga(ctx context.Context, arg UpdateOrderSagaParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateOrderSaga,
		arg.ID,
		arg.State,
		arg.OrderID,
		arg.RemovedCartLines,
		arg.FailureReason,
		arg.FromStates,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listStaleOrderSagas = `
SELECT ` + orderSagaColumns + ` FROM order_sagas
WHERE state NOT IN ('STOCK_DECREMENTED', 'FAILED') AND updated_at < $1
ORDER BY updated_at
LIMIT $2
`

type ListStaleOrderSagasParams struct {
	UpdatedBefore pgtype.Timestamptz `json:"updatedBefore"`
	Limit         int32              `json:"limit"`
}

func (q *Queries) ListStaleOrderSagas(ctx context.Context, arg ListStaleOrderSagasParams) ([]OrderSaga, error) {
	rows, err := q.db.Query(ctx, listStaleOrderSagas, arg.UpdatedBefore, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sagas []OrderSaga
	for rows.Next() {
		s, err := scanOrderSaga(rows)
		if err != nil {
			return nil, err
		}
		sagas = append(sagas, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sagas, nil
}
