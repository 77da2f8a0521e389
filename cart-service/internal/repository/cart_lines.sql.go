package repository

import (
	"context"
)

const cartLineColumns = `id, user_id, item_id, num, name, spec, price, image, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCartLine(row rowScanner) (CartLine, error) {
	var c CartLine
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.ItemID,
		&c.Num,
		&c.Name,
		&c.Spec,
		&c.Price,
		&c.Image,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

const lockUserCart = `SELECT pg_advisory_xact_lock($1)`

// LockUserCart serialises cart mutations of one user until the surrounding
// transaction ends.
func (q *Queries) LockUserCart(ctx context.Context, userID int64) error {
	_, err := q.db.Exec(ctx, lockUserCart, userID)
	return err
}

const incrementCartLineNum = `
UPDATE cart_lines SET num = num + $3, updated_at = NOW()
WHERE user_id = $1 AND item_id = $2
`

type IncrementCartLineNumParams struct {
	UserID int64 `json:"userId"`
	ItemID int64 `json:"itemId"`
	Num    int32 `json:"num"`
}

func (q *Queries) IncrementCartLineNum(ctx context.Context, arg IncrementCartLineNumParams) (int64, error) {
	result, err := q.db.Exec(ctx, incrementCartLineNum, arg.UserID, arg.ItemID, arg.Num)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const countCartLinesByUser = `SELECT COUNT(*) FROM cart_lines WHERE user_id = $1`

func (q *Queries) CountCartLinesByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countCartLinesByUser, userID).Scan(&count)
	return count, err
}

const createCartLine = `
INSERT INTO cart_lines (user_id, item_id, num, name, spec, price, image)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + cartLineColumns

type CreateCartLineParams struct {
	UserID int64  `json:"userId"`
	ItemID int64  `json:"itemId"`
	Num    int32  `json:"num"`
	Name   string `json:"name"`
	Spec   string `json:"spec"`
	Price  int64  `json:"price"`
	Image  string `json:"image"`
}

func (q *Queries) CreateCartLine(ctx context.Context, arg CreateCartLineParams) (CartLine, error) {
	row := q.db.QueryRow(ctx, createCartLine,
		arg.UserID,
		arg.ItemID,
		arg.Num,
		arg.Name,
		arg.Spec,
		arg.Price,
		arg.Image,
	)
	return scanCartLine(row)
}

const insertCartLineIfAbsent = `
INSERT INTO cart_lines (user_id, item_id, num, name, spec, price, image)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, item_id) DO NOTHING
`

func (q *Queries) InsertCartLineIfAbsent(ctx context.Context, arg CreateCartLineParams) (int64, error) {
	result, err := q.db.Exec(ctx, insertCartLineIfAbsent,
		arg.UserID,
		arg.ItemID,
		arg.Num,
		arg.Name,
		arg.Spec,
		arg.Price,
		arg.Image,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listCartLinesByUser = `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE user_id = $1 ORDER BY id`

func (q *Queries) ListCartLinesByUser(ctx context.Context, userID int64) ([]CartLine, error) {
	rows, err := q.db.Query(ctx, listCartLinesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		c, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

const deleteCartLinesByItemIDs = `
DELETE FROM cart_lines
WHERE user_id = $1 AND item_id = ANY($2::bigint[])
RETURNING ` + cartLineColumns

type DeleteCartLinesByItemIDsParams struct {
	UserID  int64   `json:"userId"`
	ItemIDs []int64 `json:"itemIds"`
}

func (q *Queries) DeleteCartLinesByItemIDs(ctx context.Context, arg DeleteCartLinesByItemIDsParams) ([]CartLine, error) {
	rows, err := q.db.Query(ctx, deleteCartLinesByItemIDs, arg.UserID, arg.ItemIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		c, err := scanCartLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

const deleteCartLine = `DELETE FROM cart_lines WHERE user_id = $1 AND item_id = $2`

type DeleteCartLineParams struct {
	UserID int64 `json:"userId"`
	ItemID int64 `json:"itemId"`
}

func (q *Queries) DeleteCartLine(ctx context.Context, arg DeleteCartLineParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteCartLine, arg.UserID, arg.ItemID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
