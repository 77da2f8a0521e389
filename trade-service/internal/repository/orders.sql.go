package repository

import (
	"context"
)

const orderColumns = `id, user_id, total_fee, payment_type, status, create_time, pay_time, close_time, update_time`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.TotalFee,
		&o.PaymentType,
		&o.Status,
		&o.CreateTime,
		&o.PayTime,
		&o.CloseTime,
		&o.UpdateTime,
	)
	return o, err
}

const createOrder = `
INSERT INTO orders (user_id, total_fee, payment_type, status)
VALUES ($1, $2, $3, 1)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	UserID      int64 `json:"userId"`
	TotalFee    int64 `json:"totalFee"`
	PaymentType int16 `json:"paymentType"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder, arg.UserID, arg.TotalFee, arg.PaymentType)
	return scanOrder(row)
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	return scanOrder(row)
}

const markOrderPaid = `
UPDATE orders SET status = 2, pay_time = NOW(), update_time = NOW()
WHERE id = $1 AND status = 1
RETURNING ` + orderColumns

// MarkOrderPaid returns pgx.ErrNoRows when the order is not UNPAID.
func (q *Queries) MarkOrderPaid(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, markOrderPaid, id)
	return scanOrder(row)
}

const cancelOrder = `
UPDATE orders SET status = 5, close_time = NOW(), update_time = NOW()
WHERE id = $1 AND status = 1
RETURNING ` + orderColumns

// CancelOrder returns pgx.ErrNoRows when the order is not UNPAID.
func (q *Queries) CancelOrder(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, cancelOrder, id)
	return scanOrder(row)
}

const createOrderDetail = `
INSERT INTO order_details (order_id, item_id, num, name, spec, price, image)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, order_id, item_id, num, name, spec, price, image, create_time
`

type CreateOrderDetailParams struct {
	OrderID int64  `json:"orderId"`
	ItemID  int64  `json:"itemId"`
	Num     int32  `json:"num"`
	Name    string `json:"name"`
	Spec    string `json:"spec"`
	Price   int64  `json:"price"`
	Image   string `json:"image"`
}

func (q *Queries) CreateOrderDetail(ctx context.Context, arg CreateOrderDetailParams) (OrderDetail, error) {
	row := q.db.QueryRow(ctx, createOrderDetail,
		arg.OrderID,
		arg.ItemID,
		arg.Num,
		arg.Name,
		arg.Spec,
		arg.Price,
		arg.Image,
	)
	var d OrderDetail
	err := row.Scan(
		&d.ID,
		&d.OrderID,
		&d.ItemID,
		&d.Num,
		&d.Name,
		&d.Spec,
		&d.Price,
		&d.Image,
		&d.CreateTime,
	)
	return d, err
}

const listOrderDetails = `
SELECT id, order_id, item_id, num, name, spec, price, image, create_time
FROM order_details WHERE order_id = $1 ORDER BY id
`

func (q *Queries) ListOrderDetails(ctx context.Context, orderID int64) ([]OrderDetail, error) {
	rows, err := q.db.Query(ctx, listOrderDetails, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []OrderDetail
	for rows.Next() {
		var d OrderDetail
		if err := rows.Scan(
			&d.ID,
			&d.OrderID,
			&d.ItemID,
			&d.Num,
			&d.Name,
			&d.Spec,
			&d.Price,
			&d.Image,
			&d.CreateTime,
		); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
