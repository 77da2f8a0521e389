package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/postgres"
)

type PostgreSQLCartRepository struct {
	*Queries
	db *pgxpool.Pool
}

func NewPostgreSQLCartRepository(db *pgxpool.Pool) *PostgreSQLCartRepository {
	return &PostgreSQLCartRepository{
		db:      db,
		Queries: New(db),
	}
}

func (r *PostgreSQLCartRepository) execTx(ctx context.Context, fn func(*Queries) error) error {
	return postgres.ExecTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(r.WithTx(tx))
	})
}

// AddItem bumps the quantity of an existing line or inserts a new one when
// the user holds fewer than maxLines lines. The per-user advisory lock keeps
// two concurrent adds from both passing the size check.
func (r *PostgreSQLCartRepository) AddItem(ctx context.Context, arg CreateCartLineParams, maxLines int) error {
	return r.execTx(ctx, func(q *Queries) error {
		if err := q.LockUserCart(ctx, arg.UserID); err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}

		updated, err := q.IncrementCartLineNum(ctx, IncrementCartLineNumParams{
			UserID: arg.UserID,
			ItemID: arg.ItemID,
			Num:    arg.Num,
		})
		if err != nil {
			return fmt.Errorf("failed to increment cart line: %w", err)
		}
		if updated > 0 {
			return nil
		}

		count, err := q.CountCartLinesByUser(ctx, arg.UserID)
		if err != nil {
			return fmt.Errorf("failed to count cart lines: %w", err)
		}
		if count >= int64(maxLines) {
			return apperr.Conflict("cart", fmt.Sprintf("cart cannot hold more than %d items", maxLines)).
				WithReason(apperr.ReasonCartFull)
		}

		if _, err := q.CreateCartLine(ctx, arg); err != nil {
			return fmt.Errorf("failed to create cart line: %w", err)
		}
		return nil
	})
}

// RemoveByItemIDs deletes the user's lines for itemIDs and returns what was
// removed. An empty result is not an error.
func (r *PostgreSQLCartRepository) RemoveByItemIDs(ctx context.Context, userID int64, itemIDs []int64) ([]CartLine, error) {
	var removed []CartLine
	err := r.execTx(ctx, func(q *Queries) error {
		lines, err := q.DeleteCartLinesByItemIDs(ctx, DeleteCartLinesByItemIDsParams{
			UserID:  userID,
			ItemIDs: itemIDs,
		})
		if err != nil {
			return fmt.Errorf("failed to delete cart lines: %w", err)
		}
		removed = lines
		return nil
	})
	return removed, err
}

// RestoreLines puts previously removed lines back. Lines the user re-added
// in the meantime are left untouched and the size limit is not enforced.
func (r *PostgreSQLCartRepository) RestoreLines(ctx context.Context, lines []CreateCartLineParams) (int64, error) {
	var restored int64
	err := r.execTx(ctx, func(q *Queries) error {
		for _, line := range lines {
			n, err := q.InsertCartLineIfAbsent(ctx, line)
			if err != nil {
				return fmt.Errorf("failed to restore cart line for item %d: %w", line.ItemID, err)
			}
			restored += n
		}
		return nil
	})
	return restored, err
}
