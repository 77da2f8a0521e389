package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	ID    string `json:"id"`
	Price int64  `json:"price"`
}

func testItemID(i testItem) string { return i.ID }

func encode(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

type countingLoader struct {
	calls int
	asked [][]string
	rows  map[string]testItem
	err   error
}

func (l *countingLoader) load(_ context.Context, ids []string) ([]testItem, error) {
	l.calls++
	l.asked = append(l.asked, ids)
	if l.err != nil {
		return nil, l.err
	}
	var out []testItem
	for _, id := range ids {
		if row, ok := l.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestStoreReadThroughMany(t *testing.T) {
	item1 := testItem{ID: "1", Price: 1000}
	item2 := testItem{ID: "2", Price: 500}
	item3 := testItem{ID: "3", Price: 250}

	t.Run("cold cache then warm cache touches the store once", func(t *testing.T) {
		client, redisMock := redismock.NewClientMock()
		store := NewStore(client, logs.NewSlogLogger(), "item", 0, testItemID)
		loader := &countingLoader{rows: map[string]testItem{"1": item1, "2": item2, "3": item3}}

		redisMock.ExpectMGet("item:1", "item:2", "item:3").SetVal([]any{nil, nil, nil})
		redisMock.ExpectSet("item:1", encode(t, item1), 0).SetVal("OK")
		redisMock.ExpectSet("item:2", encode(t, item2), 0).SetVal("OK")
		redisMock.ExpectSet("item:3", encode(t, item3), 0).SetVal("OK")

		first, err := store.ReadThroughMany(context.Background(), []string{"1", "2", "3"}, loader.load)
		require.NoError(t, err)

		redisMock.ExpectMGet("item:1", "item:2", "item:3").
			SetVal([]any{string(encode(t, item1)), string(encode(t, item2)), string(encode(t, item3))})

		second, err := store.ReadThroughMany(context.Background(), []string{"1", "2", "3"}, loader.load)
		require.NoError(t, err)

		assert.Equal(t, 1, loader.calls)
		assert.Equal(t, first, second)
		assert.Equal(t, []testItem{item1, item2, item3}, second)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("partial hit loads only the missing subset", func(t *testing.T) {
		client, redisMock := redismock.NewClientMock()
		store := NewStore(client, logs.NewSlogLogger(), "item", 0, testItemID)
		loader := &countingLoader{rows: map[string]testItem{"2": item2}}

		redisMock.ExpectMGet("item:1", "item:2").SetVal([]any{string(encode(t, item1)), nil})
		redisMock.ExpectSet("item:2", encode(t, item2), 0).SetVal("OK")

		items, err := store.ReadThroughMany(context.Background(), []string{"1", "2"}, loader.load)

		require.NoError(t, err)
		assert.Equal(t, []testItem{item1, item2}, items)
		assert.Equal(t, [][]string{{"2"}}, loader.asked)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("stale hit is preferred over a store round trip", func(t *testing.T) {
		client, redisMock := redismock.NewClientMock()
		store := NewStore(client, logs.NewSlogLogger(), "item", 0, testItemID)
		stale := testItem{ID: "1", Price: 1}
		loader := &countingLoader{rows: map[string]testItem{"1": item1}}

		redisMock.ExpectMGet("item:1").SetVal([]any{string(encode(t, stale))})

		items, err := store.ReadThroughMany(context.Background(), []string{"1", "1"}, loader.load)

		require.NoError(t, err)
		assert.Equal(t, []testItem{stale}, items)
		assert.Zero(t, loader.calls)
	})

	t.Run("unknown ids are absent from the result", func(t *testing.T) {
		client, redisMock := redismock.NewClientMock()
		store := NewStore(client, logs.NewSlogLogger(), "item", 0, testItemID)
		loader := &countingLoader{rows: map[string]testItem{"1": item1}}

		redisMock.ExpectMGet("item:1", "item:99").SetVal([]any{nil, nil})
		redisMock.ExpectSet("item:1", encode(t, item1), 0).SetVal("OK")

		items, err := store.ReadThroughMany(context.Background(), []string{"1", "99"}, loader.load)

		require.NoError(t, err)
		assert.Equal(t, []testItem{item1}, items)
	})

	t.Run("cache outage falls back to the store", func(t *testing.T) {
		client, redisMock := redismock.NewClientMock()
		store := NewStore(client, logs.NewSlogLogger(), "item", 0, testItemID)
		loader := &countingLoader{rows: map[string]testItem{"1": item1}}

		redisMock.ExpectMGet("item:1").SetErr(errors.New("connection refused"))
		redisMock.ExpectSet("item:1", encode(t, item1), 0).SetErr(errors.New("connection refused"))

		items, err := store.ReadThroughMany(context.Background(), []string{"1"}, loader.load)

		require.NoError(t, err)
		assert.Equal(t, []testItem{item1}, items)
		assert.Equal(t, 1, loader.calls)
	})

	t.Run("store failure is returned and nothing is cached", func(t *testing.T) {
		client, redisMock := redismock.NewClientMock()
		store := NewStore(client, logs.NewSlogLogger(), "item", 0, testItemID)
		loader := &countingLoader{err: errors.New("db down")}

		redisMock.ExpectMGet("item:1").SetVal([]any{nil})

		_, err := store.ReadThroughMany(context.Background(), []string{"1"}, loader.load)

		assert.EqualError(t, err, "db down")
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}

func TestStoreReadThrough(t *testing.T) {
	order := testItem{ID: "7", Price: 2500}

	t.Run("hit skips the loader", func(t *testing.T) {
		client, redisMock := redismock.NewClientMock()
		store := NewStore(client, logs.NewSlogLogger(), "order", 0, testItemID)

		redisMock.ExpectGet("order:7").SetVal(string(encode(t, order)))

		got, err := store.ReadThrough(context.Background(), "7", func(context.Context) (testItem, error) {
			t.Fatal("loader must not run on a hit")
			return testItem{}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, order, got)
	})

	t.Run("miss loads and caches", func(t *testing.T) {
		client, redisMock := redismock.NewClientMock()
		store := NewStore(client, logs.NewSlogLogger(), "order", 0, testItemID)

		redisMock.ExpectGet("order:7").RedisNil()
		redisMock.ExpectSet("order:7", encode(t, order), 0).SetVal("OK")

		got, err := store.ReadThrough(context.Background(), "7", func(context.Context) (testItem, error) {
			return order, nil
		})

		require.NoError(t, err)
		assert.Equal(t, order, got)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("loader error is not cached", func(t *testing.T) {
		client, redisMock := redismock.NewClientMock()
		store := NewStore(client, logs.NewSlogLogger(), "order", 0, testItemID)
		notFound := errors.New("order not found")

		redisMock.ExpectGet("order:8").RedisNil()

		_, err := store.ReadThrough(context.Background(), "8", func(context.Context) (testItem, error) {
			return testItem{}, notFound
		})

		assert.ErrorIs(t, err, notFound)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}

func TestStoreWrites(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	store := NewStore(client, logs.NewSlogLogger(), "item", 10*time.Minute, testItemID)
	item := testItem{ID: "1", Price: 1000}

	redisMock.ExpectSet("item:1", encode(t, item), 10*time.Minute).SetVal("OK")
	assert.NoError(t, store.Put(context.Background(), item))

	redisMock.ExpectDel("item:1", "item:2").SetVal(2)
	assert.NoError(t, store.Invalidate(context.Background(), "1", "2"))

	assert.NoError(t, store.Invalidate(context.Background()))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
