package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/contracts"
	"github.com/peng-yewang/YGMall/shared/discovery"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItemClient(t *testing.T, handler http.HandlerFunc) *ItemClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	registry := discovery.NewRegistry(map[string][]string{itemServiceName: {server.URL}})
	return NewItemClient(registry, time.Second, logs.NewSlogLogger())
}

func TestQueryItemsByIDs(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		client := newItemClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/items", r.URL.Path)
			assert.Equal(t, "1,2", r.URL.Query().Get("ids"))
			web.RespondWithJSON(w, nil, http.StatusOK, []contracts.ItemDTO{
				{ID: 1, Name: "Phone", Price: 1000},
			})
		})

		items, err := client.QueryItemsByIDs(context.Background(), []int64{1, 2})

		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, "Phone", items[1].Name)
		_, found := items[2]
		assert.False(t, found)
	})

	t.Run("No IDs skips the call", func(t *testing.T) {
		client := newItemClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("item service must not be called")
		})

		items, err := client.QueryItemsByIDs(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("Unavailable", func(t *testing.T) {
		client := newItemClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.QueryItemsByIDs(context.Background(), []int64{1})

		assert.ErrorIs(t, err, apperr.ErrDependency)
	})
}
