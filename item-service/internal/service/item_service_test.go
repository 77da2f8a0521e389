package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/jackc/pgx/v5"
	"github.com/peng-yewang/YGMall/item-service/internal/repository"
	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) GetItem(ctx context.Context, id int64) (repository.Item, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(repository.Item), args.Error(1)
}

func (m *MockInventoryRepository) GetItemsByIDs(ctx context.Context, ids []int64) ([]repository.Item, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Item), args.Error(1)
}

func (m *MockInventoryRepository) UpdateItem(ctx context.Context, arg repository.UpdateItemParams) (repository.Item, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(repository.Item), args.Error(1)
}

func (m *MockInventoryRepository) DeductStock(ctx context.Context, orderID int64, lines []contracts.StockLine) (bool, error) {
	args := m.Called(ctx, orderID, lines)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryRepository) RestoreStock(ctx context.Context, orderID int64) ([]contracts.StockLine, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]contracts.StockLine), args.Error(1)
}

func encodeItem(t *testing.T, item contracts.ItemDTO) []byte {
	t.Helper()
	data, err := json.Marshal(item)
	require.NoError(t, err)
	return data
}

var (
	dbItem1 = repository.Item{ID: 1, Name: "Phone", Price: 1000, Stock: 10, Status: contracts.ItemStatusOnSale}
	dbItem2 = repository.Item{ID: 2, Name: "Case", Price: 500, Stock: 5, Status: contracts.ItemStatusOnSale}
	dbItem3 = repository.Item{ID: 3, Name: "Cable", Price: 250, Stock: 0, Status: contracts.ItemStatusOffSale}
)

func TestQueryByIDs(t *testing.T) {
	t.Run("second identical query makes zero store calls", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, redisMock := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		dto1, dto2, dto3 := toItemDTO(dbItem1), toItemDTO(dbItem2), toItemDTO(dbItem3)

		redisMock.ExpectMGet("item:1", "item:2", "item:3").SetVal([]any{nil, nil, nil})
		repo.On("GetItemsByIDs", mock.Anything, []int64{1, 2, 3}).
			Return([]repository.Item{dbItem1, dbItem2, dbItem3}, nil).Once()
		redisMock.ExpectSet("item:1", encodeItem(t, dto1), 0).SetVal("OK")
		redisMock.ExpectSet("item:2", encodeItem(t, dto2), 0).SetVal("OK")
		redisMock.ExpectSet("item:3", encodeItem(t, dto3), 0).SetVal("OK")

		first, err := svc.QueryByIDs(context.Background(), []int64{1, 2, 3})
		require.NoError(t, err)

		redisMock.ExpectMGet("item:1", "item:2", "item:3").SetVal([]any{
			string(encodeItem(t, dto1)),
			string(encodeItem(t, dto2)),
			string(encodeItem(t, dto3)),
		})

		second, err := svc.QueryByIDs(context.Background(), []int64{1, 2, 3})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, second, 3)
		repo.AssertNumberOfCalls(t, "GetItemsByIDs", 1)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("unknown ids are left out", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, redisMock := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		redisMock.ExpectMGet("item:1", "item:99").SetVal([]any{nil, nil})
		repo.On("GetItemsByIDs", mock.Anything, []int64{1, 99}).Return([]repository.Item{dbItem1}, nil).Once()
		redisMock.ExpectSet("item:1", encodeItem(t, toItemDTO(dbItem1)), 0).SetVal("OK")

		items, err := svc.QueryByIDs(context.Background(), []int64{1, 99})

		require.NoError(t, err)
		assert.Equal(t, []contracts.ItemDTO{toItemDTO(dbItem1)}, items)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, redisMock := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		redisMock.ExpectMGet("item:1").SetVal([]any{nil})
		repo.On("GetItemsByIDs", mock.Anything, []int64{1}).Return(nil, errors.New("db down")).Once()

		_, err := svc.QueryByIDs(context.Background(), []int64{1})

		assert.ErrorIs(t, err, apperr.ErrInternal)
	})
}

func TestGetItem(t *testing.T) {
	t.Run("missing item is not cached", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, redisMock := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		redisMock.ExpectGet("item:99").RedisNil()
		repo.On("GetItem", mock.Anything, int64(99)).Return(repository.Item{}, pgx.ErrNoRows).Once()

		_, err := svc.GetItem(context.Background(), 99)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.Equal(t, apperr.ReasonItemNotFound, apperr.ReasonOf(err))
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("hit", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, redisMock := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		redisMock.ExpectGet("item:1").SetVal(string(encodeItem(t, toItemDTO(dbItem1))))

		item, err := svc.GetItem(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, int64(1000), item.Price)
		repo.AssertNotCalled(t, "GetItem", mock.Anything, mock.Anything)
	})
}

func TestUpdateItem(t *testing.T) {
	params := repository.UpdateItemParams{ID: 1, Name: "Phone", Price: 1200, Stock: 10, Status: contracts.ItemStatusOnSale}

	t.Run("store write then cache overwrite", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, redisMock := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		updated := dbItem1
		updated.Price = 1200
		repo.On("UpdateItem", mock.Anything, params).Return(updated, nil).Once()
		redisMock.ExpectSet("item:1", encodeItem(t, toItemDTO(updated)), 0).SetVal("OK")

		item, err := svc.UpdateItem(context.Background(), params)

		require.NoError(t, err)
		assert.Equal(t, int64(1200), item.Price)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("invalid status", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, _ := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		bad := params
		bad.Status = 7
		_, err := svc.UpdateItem(context.Background(), bad)

		assert.ErrorIs(t, err, apperr.ErrValidation)
		repo.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
	})

	t.Run("unknown item", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, _ := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		repo.On("UpdateItem", mock.Anything, params).Return(repository.Item{}, pgx.ErrNoRows).Once()

		_, err := svc.UpdateItem(context.Background(), params)

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestDeductStock(t *testing.T) {
	req := contracts.DeductStockRequest{
		OrderID: 42,
		Lines:   []contracts.StockLine{{ItemID: 1, Num: 2}, {ItemID: 2, Num: 1}, {ItemID: 1, Num: 1}},
	}
	merged := []contracts.StockLine{{ItemID: 1, Num: 3}, {ItemID: 2, Num: 1}}

	t.Run("success invalidates every deducted item", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, redisMock := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		repo.On("DeductStock", mock.Anything, int64(42), merged).Return(true, nil).Once()
		redisMock.ExpectDel("item:1", "item:2").SetVal(2)

		err := svc.DeductStock(context.Background(), req)

		require.NoError(t, err)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("repeat for the same order is a no-op", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, redisMock := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		repo.On("DeductStock", mock.Anything, int64(42), merged).Return(false, nil).Once()

		err := svc.DeductStock(context.Background(), req)

		require.NoError(t, err)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("insufficient stock keeps kind and reason", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, _ := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		conflict := apperr.Conflict("item", "insufficient stock for item 1").WithReason(apperr.ReasonInsufficientStock)
		repo.On("DeductStock", mock.Anything, int64(42), merged).Return(false, conflict).Once()

		err := svc.DeductStock(context.Background(), req)

		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.Equal(t, apperr.ReasonInsufficientStock, apperr.ReasonOf(err))
	})

	t.Run("non positive quantity", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, _ := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		err := svc.DeductStock(context.Background(), contracts.DeductStockRequest{
			OrderID: 42,
			Lines:   []contracts.StockLine{{ItemID: 1, Num: 0}},
		})

		assert.ErrorIs(t, err, apperr.ErrValidation)
		repo.AssertNotCalled(t, "DeductStock", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty batch", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, _ := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		err := svc.DeductStock(context.Background(), contracts.DeductStockRequest{OrderID: 42})

		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestRestoreStock(t *testing.T) {
	t.Run("restored lines are invalidated", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, redisMock := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		repo.On("RestoreStock", mock.Anything, int64(42)).
			Return([]contracts.StockLine{{ItemID: 1, Num: 2}}, nil).Once()
		redisMock.ExpectDel("item:1").SetVal(1)

		err := svc.RestoreStock(context.Background(), contracts.RestoreStockRequest{OrderID: 42})

		require.NoError(t, err)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("tombstone leaves the cache alone", func(t *testing.T) {
		repo := new(MockInventoryRepository)
		client, redisMock := redismock.NewClientMock()
		svc := NewItemService(repo, client, logs.NewSlogLogger())

		repo.On("RestoreStock", mock.Anything, int64(43)).Return(nil, nil).Once()

		err := svc.RestoreStock(context.Background(), contracts.RestoreStockRequest{OrderID: 43})

		require.NoError(t, err)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("invalid order id", func(t *testing.T) {
		svc := NewItemService(new(MockInventoryRepository), nil, logs.NewSlogLogger())

		err := svc.RestoreStock(context.Background(), contracts.RestoreStockRequest{})

		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}
