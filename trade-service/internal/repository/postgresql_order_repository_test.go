package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/peng-yewang/YGMall/shared/events"
	"github.com/peng-yewang/YGMall/trade-service/internal/saga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDBTX struct {
	mock.Mock
}

func (m *MockDBTX) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	called := m.Called(ctx, sql, args)
	return called.Get(0).(pgconn.CommandTag), called.Error(1)
}

func (m *MockDBTX) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	called := m.Called(ctx, sql, args)
	rows, _ := called.Get(0).(pgx.Rows)
	return rows, called.Error(1)
}

func (m *MockDBTX) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	called := m.Called(ctx, sql, args)
	row, _ := called.Get(0).(pgx.Row)
	return row
}

func sagaStatesArg(args []interface{}) []string {
	states, _ := args[5].([]string)
	return states
}

func TestUpdateSagaGuardsPriorState(t *testing.T) {
	tests := []struct {
		name   string
		move   func(r *PostgreSQLOrderRepository, id uuid.UUID) error
		target saga.State
		from   []string
	}{
		{
			name: "cart cleared",
			move: func(r *PostgreSQLOrderRepository, id uuid.UUID) error {
				return r.MarkCartCleared(context.Background(), id, nil)
			},
			target: saga.StateCartCleared,
			from:   []string{"PERSISTED"},
		},
		{
			name: "compensating",
			move: func(r *PostgreSQLOrderRepository, id uuid.UUID) error {
				return r.MarkCompensating(context.Background(), id, "insufficient stock")
			},
			target: saga.StateCompensating,
			from:   []string{"PRICING", "PERSISTED", "CART_CLEARED", "COMPENSATING", "FAILED"},
		},
		{
			name: "failed",
			move: func(r *PostgreSQLOrderRepository, id uuid.UUID) error {
				return r.MarkFailed(context.Background(), id, "abandoned")
			},
			target: saga.StateFailed,
			from:   []string{"PRICING", "COMPENSATING"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := new(MockDBTX)
			repo := &PostgreSQLOrderRepository{Queries: New(db)}
			db.On("Exec", mock.Anything, updateOrderSaga, mock.Anything).
				Return(pgconn.NewCommandTag("UPDATE 1"), nil).Once()

			require.NoError(t, tt.move(repo, uuid.New()))

			args := db.Calls[0].Arguments.Get(2).([]interface{})
			assert.Equal(t, string(tt.target), args[1])
			assert.Equal(t, tt.from, sagaStatesArg(args))
			db.AssertExpectations(t)
		})
	}
}

func TestUpdateSagaReportsLostTransition(t *testing.T) {
	db := new(MockDBTX)
	db.On("Exec", mock.Anything, updateOrderSaga, mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil).Once()

	err := updateSaga(context.Background(), New(db), UpdateOrderSagaParams{
		ID:    toPgUUID(uuid.New()),
		State: string(saga.StateStockDecremented),
	})

	assert.ErrorIs(t, err, saga.ErrTransitionLost)
	args := db.Calls[0].Arguments.Get(2).([]interface{})
	assert.Equal(t, []string{"CART_CLEARED"}, sagaStatesArg(args))
}

func TestInsertOutboxEvent(t *testing.T) {
	db := new(MockDBTX)
	db.On("Exec", mock.Anything, createOutboxEvent, mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Once()

	err := insertOutboxEvent(context.Background(), New(db), 7, events.OrderPaidEventName, events.OrderPaidEvent{OrderID: 7, UserID: 42})

	require.NoError(t, err)
	args := db.Calls[0].Arguments.Get(2).([]interface{})
	assert.Equal(t, "7", args[1])
	assert.Equal(t, events.OrderPaidEventName, args[2])

	var paid events.OrderPaidEvent
	require.NoError(t, json.Unmarshal(args[3].([]byte), &paid))
	assert.Equal(t, int64(42), paid.UserID)
}
