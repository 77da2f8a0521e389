package repository

import (
	"context"
)

const itemColumns = `id, name, price, stock, image, category, brand, spec, status, created_at, updated_at`

func scanItem(row interface{ Scan(dest ...any) error }) (Item, error) {
	var i Item
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Stock,
		&i.Image,
		&i.Category,
		&i.Brand,
		&i.Spec,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getItem = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

func (q *Queries) GetItem(ctx context.Context, id int64) (Item, error) {
	return scanItem(q.db.QueryRow(ctx, getItem, id))
}

const getItemsByIDs = `SELECT ` + itemColumns + ` FROM items WHERE id = ANY($1::bigint[]) ORDER BY id`

func (q *Queries) GetItemsByIDs(ctx context.Context, ids []int64) ([]Item, error) {
	rows, err := q.db.Query(ctx, getItemsByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateItem = `
UPDATE items
SET name = $2, price = $3, stock = $4, image = $5, category = $6, brand = $7, spec = $8, status = $9, updated_at = NOW()
WHERE id = $1
RETURNING ` + itemColumns

type UpdateItemParams struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Stock    int32  `json:"stock"`
	Image    string `json:"image"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Spec     string `json:"spec"`
	Status   int16  `json:"status"`
}

func (q *Queries) UpdateItem(ctx context.Context, arg UpdateItemParams) (Item, error) {
	row := q.db.QueryRow(ctx, updateItem,
		arg.ID,
		arg.Name,
		arg.Price,
		arg.Stock,
		arg.Image,
		arg.Category,
		arg.Brand,
		arg.Spec,
		arg.Status,
	)
	return scanItem(row)
}

const deductItemStock = `
UPDATE items SET stock = stock - $2, updated_at = NOW()
WHERE id = $1 AND stock >= $2
`

type ItemStockParams struct {
	ID  int64 `json:"id"`
	Num int32 `json:"num"`
}

// DeductItemStock returns the number of rows updated; zero means the guard
// stock >= num failed or the item does not exist.
func (q *Queries) DeductItemStock(ctx context.Context, arg ItemStockParams) (int64, error) {
	result, err := q.db.Exec(ctx, deductItemStock, arg.ID, arg.Num)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const restoreItemStock = `
UPDATE items SET stock = stock + $2, updated_at = NOW()
WHERE id = $1
`

func (q *Queries) RestoreItemStock(ctx context.Context, arg ItemStockParams) (int64, error) {
	result, err := q.db.Exec(ctx, restoreItemStock, arg.ID, arg.Num)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
