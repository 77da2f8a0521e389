package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/postgres"
)

const restoreAttempts = 2

var (
	errAlreadyDeducted = errors.New("stock already deducted for order")
	errTombstoneRace   = errors.New("concurrent stock deduction record")
)

type PostgreSQLInventoryRepository struct {
	*Queries
	db *pgxpool.Pool
}

func NewPostgreSQLInventoryRepository(db *pgxpool.Pool) *PostgreSQLInventoryRepository {
	return &PostgreSQLInventoryRepository{
		db:      db,
		Queries: New(db),
	}
}

func (r *PostgreSQLInventoryRepository) execTx(ctx context.Context, fn func(*Queries) error) error {
	return postgres.ExecTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(r.WithTx(tx))
	})
}

// DeductStock decrements every line in one transaction, recording the
// deduction under orderID. It reports applied=false when the order was
// already deducted. Lines are applied in item id order so concurrent batches
// lock rows in the same sequence.
func (r *PostgreSQLInventoryRepository) DeductStock(ctx context.Context, orderID int64, lines []contracts.StockLine) (bool, error) {
	sorted := sortLines(lines)
	encodedLines, err := json.Marshal(sorted)
	if err != nil {
		return false, fmt.Errorf("failed to marshal stock lines: %w", err)
	}

	err = r.execTx(ctx, func(q *Queries) error {
		_, err := q.CreateStockDeduction(ctx, CreateStockDeductionParams{
			OrderID: orderID,
			Status:  DeductionStatusDeducted,
			Lines:   encodedLines,
		})
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("failed to record stock deduction: %w", err)
			}
			return checkExistingDeduction(ctx, q, orderID)
		}

		for _, line := range sorted {
			updated, err := q.DeductItemStock(ctx, ItemStockParams{ID: line.ItemID, Num: line.Num})
			if err != nil {
				return fmt.Errorf("failed to deduct stock for item %d: %w", line.ItemID, err)
			}
			if updated == 0 {
				return apperr.Conflict("item", fmt.Sprintf("insufficient stock for item %d", line.ItemID)).
					WithReason(apperr.ReasonInsufficientStock)
			}
		}
		return nil
	})

	if errors.Is(err, errAlreadyDeducted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func checkExistingDeduction(ctx context.Context, q *Queries, orderID int64) error {
	existing, err := q.GetStockDeductionForUpdate(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load stock deduction: %w", err)
	}
	if existing.Status == DeductionStatusRestored {
		return apperr.Conflict("stock", fmt.Sprintf("stock for order %d was already restored", orderID)).
			WithReason(apperr.ReasonAlreadyRestored)
	}
	return errAlreadyDeducted
}

// RestoreStock undoes the deduction recorded for orderID and returns the
// lines it gave back. When nothing was deducted a RESTORED tombstone is
// written so a late deduction for the same order is refused.
func (r *PostgreSQLInventoryRepository) RestoreStock(ctx context.Context, orderID int64) ([]contracts.StockLine, error) {
	var restored []contracts.StockLine

	for attempt := 1; attempt <= restoreAttempts; attempt++ {
		restored = nil
		err := r.execTx(ctx, func(q *Queries) error {
			existing, err := q.GetStockDeductionForUpdate(ctx, orderID)
			if errors.Is(err, pgx.ErrNoRows) {
				return writeTombstone(ctx, q, orderID)
			}
			if err != nil {
				return fmt.Errorf("failed to load stock deduction: %w", err)
			}
			if existing.Status == DeductionStatusRestored {
				return nil
			}

			var lines []contracts.StockLine
			if err := json.Unmarshal(existing.Lines, &lines); err != nil {
				return fmt.Errorf("failed to decode stock lines: %w", err)
			}

			for _, line := range sortLines(lines) {
				if _, err := q.RestoreItemStock(ctx, ItemStockParams{ID: line.ItemID, Num: line.Num}); err != nil {
					return fmt.Errorf("failed to restore stock for item %d: %w", line.ItemID, err)
				}
			}

			if err := q.UpdateStockDeductionStatus(ctx, UpdateStockDeductionStatusParams{
				OrderID: orderID,
				Status:  DeductionStatusRestored,
			}); err != nil {
				return fmt.Errorf("failed to mark stock deduction restored: %w", err)
			}

			restored = lines
			return nil
		})

		if errors.Is(err, errTombstoneRace) {
			continue
		}
		return restored, err
	}

	return nil, fmt.Errorf("failed to restore stock for order %d: %w", orderID, errTombstoneRace)
}

func writeTombstone(ctx context.Context, q *Queries, orderID int64) error {
	_, err := q.CreateStockDeduction(ctx, CreateStockDeductionParams{
		OrderID: orderID,
		Status:  DeductionStatusRestored,
		Lines:   []byte("[]"),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return errTombstoneRace
	}
	if err != nil {
		return fmt.Errorf("failed to write stock restore tombstone: %w", err)
	}
	return nil
}

func sortLines(lines []contracts.StockLine) []contracts.StockLine {
	sorted := slices.Clone(lines)
	slices.SortFunc(sorted, func(a, b contracts.StockLine) int {
		return cmp.Compare(a.ItemID, b.ItemID)
	})
	return sorted
}
