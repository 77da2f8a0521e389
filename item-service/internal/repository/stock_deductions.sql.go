package repository

import (
	"context"
)

const stockDeductionColumns = `order_id, status, lines, created_at, updated_at`

const createStockDeduction = `
INSERT INTO stock_deductions (order_id, status, lines)
VALUES ($1, $2, $3)
ON CONFLICT (order_id) DO NOTHING
RETURNING order_id
`

type CreateStockDeductionParams struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
	Lines   []byte `json:"lines"`
}

// CreateStockDeduction returns pgx.ErrNoRows when a record for the order
// already exists.
func (q *Queries) CreateStockDeduction(ctx context.Context, arg CreateStockDeductionParams) (int64, error) {
	var orderID int64
	err := q.db.QueryRow(ctx, createStockDeduction, arg.OrderID, arg.Status, arg.Lines).Scan(&orderID)
	return orderID, err
}

const getStockDeductionForUpdate = `SELECT ` + stockDeductionColumns + ` FROM stock_deductions WHERE order_id = $1 FOR UPDATE`

func (q *Queries) GetStockDeductionForUpdate(ctx context.Context, orderID int64) (StockDeduction, error) {
	var d StockDeduction
	err := q.db.QueryRow(ctx, getStockDeductionForUpdate, orderID).Scan(
		&d.OrderID,
		&d.Status,
		&d.Lines,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	return d, err
}

const updateStockDeductionStatus = `
UPDATE stock_deductions SET status = $2, updated_at = NOW()
WHERE order_id = $1
`

type UpdateStockDeductionStatusParams struct {
	OrderID int64  `json:"orderId"`
	Status  string `json:"status"`
}

func (q *Queries) UpdateStockDeductionStatus(ctx context.Context, arg UpdateStockDeductionStatusParams) error {
	_, err := q.db.Exec(ctx, updateStockDeductionStatus, arg.OrderID, arg.Status)
	return err
}
