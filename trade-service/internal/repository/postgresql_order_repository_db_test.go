package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peng-yewang/YGMall/shared/config"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/events"
	"github.com/peng-yewang/YGMall/shared/postgres"
	"github.com/peng-yewang/YGMall/trade-service/internal/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tradeDatabaseURLKey = "TRADE_TEST_DATABASE_URL"

func newTradeDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if os.Getenv(tradeDatabaseURLKey) == "" {
		t.Skip(tradeDatabaseURLKey + " not set, skipping integration tests")
	}

	migrations, err := filepath.Abs("../../migrations")
	require.NoError(t, err)

	pool, err := postgres.InitializePostgresDB(config.Postgres{
		DatabaseURL:   os.Getenv(tradeDatabaseURLKey),
		MigrationsDir: migrations,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(context.Background(), `TRUNCATE order_details, orders, order_sagas, outbox_events RESTART IDENTITY`)
	require.NoError(t, err)
	return pool
}

func persistedOrder(t *testing.T, repo *PostgreSQLOrderRepository) (saga.Saga, Order) {
	t.Helper()
	ctx := context.Background()
	lines := []contracts.StockLine{{ItemID: 1, Num: 2}}

	s, err := repo.BeginSaga(ctx, 42, lines)
	require.NoError(t, err)
	order, _, err := repo.CreateOrder(ctx, s.ID, CreateOrderParams{UserID: 42, TotalFee: 2000, PaymentType: 1},
		[]CreateOrderDetailParams{{ItemID: 1, Num: 2, Name: "Phone", Price: 1000}})
	require.NoError(t, err)
	return s, order
}

func countOutbox(t *testing.T, pool *pgxpool.Pool, eventName string) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM outbox_events WHERE event_name = $1`, eventName).Scan(&n))
	return n
}

func TestMarkPaidTransitionsOnce(t *testing.T) {
	pool := newTradeDB(t)
	repo := NewPostgreSQLOrderRepository(pool)
	_, order := persistedOrder(t, repo)

	paid, updated, err := repo.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, contracts.OrderStatusPaid, paid.Status)

	_, updated, err = repo.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, updated)

	assert.Equal(t, 1, countOutbox(t, pool, events.OrderPaidEventName))
}

func TestCancelledOrderCannotBePaid(t *testing.T) {
	pool := newTradeDB(t)
	repo := NewPostgreSQLOrderRepository(pool)
	_, order := persistedOrder(t, repo)

	_, cancelled, err := repo.CancelOrder(context.Background(), order.ID, "insufficient stock")
	require.NoError(t, err)
	require.True(t, cancelled)

	_, updated, err := repo.MarkPaid(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestCompleteSagaLosesToCompensation(t *testing.T) {
	pool := newTradeDB(t)
	repo := NewPostgreSQLOrderRepository(pool)
	ctx := context.Background()
	s, order := persistedOrder(t, repo)
	require.NoError(t, repo.MarkCartCleared(ctx, s.ID, nil))

	require.NoError(t, repo.MarkCompensating(ctx, s.ID, "abandoned"))
	require.NoError(t, repo.MarkFailed(ctx, s.ID, "abandoned"))

	err := repo.CompleteSaga(ctx, s.ID, contracts.OrderView{ID: order.ID, UserID: 42})

	assert.ErrorIs(t, err, saga.ErrTransitionLost)
	assert.Zero(t, countOutbox(t, pool, events.OrderCreatedEventName), "order.created rolls back with the lost transition")

	var state string
	require.NoError(t, pool.QueryRow(ctx, `SELECT state FROM order_sagas WHERE id = $1`, toPgUUID(s.ID)).Scan(&state))
	assert.Equal(t, string(saga.StateFailed), state)
}
