package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/discovery"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	registry := discovery.NewRegistry(map[string][]string{"item-service": {server.URL}})
	return New("item-service", registry, time.Second, logs.NewSlogLogger())
}

func TestClientDo(t *testing.T) {
	t.Run("decodes success and forwards query and headers", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/items", r.URL.Path)
			assert.Equal(t, "1,2", r.URL.Query().Get("ids"))
			assert.Equal(t, "42", r.Header.Get(web.UserIDHeader))
			web.RespondWithJSON(w, nil, http.StatusOK, []map[string]int{{"id": 1}, {"id": 2}})
		})

		var out []map[string]int
		err := client.Do(context.Background(), Request{
			Method: http.MethodGet,
			Path:   "/api/items",
			Query:  url.Values{"ids": {"1,2"}},
			Header: http.Header{web.UserIDHeader: {"42"}},
		}, &out)

		require.NoError(t, err)
		assert.Len(t, out, 2)
	})

	t.Run("sends json body", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]int64
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int64(7), body["orderId"])
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusNoContent)
		})

		err := client.Do(context.Background(), Request{
			Method: http.MethodPut,
			Path:   "/api/items/stock/restore",
			Body:   map[string]int64{"orderId": 7},
		}, nil)

		assert.NoError(t, err)
	})

	t.Run("conflict keeps its reason", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			web.RespondWithAppError(w, nil, r, apperr.Conflict("item", "insufficient stock").WithReason(apperr.ReasonInsufficientStock))
		})

		err := client.Do(context.Background(), Request{Method: http.MethodPut, Path: "/api/items/stock/deduct"}, nil)

		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.Equal(t, apperr.ReasonInsufficientStock, apperr.ReasonOf(err))
	})

	t.Run("status codes map to kinds", func(t *testing.T) {
		cases := map[int]error{
			http.StatusBadRequest:          apperr.ErrValidation,
			http.StatusNotFound:            apperr.ErrNotFound,
			http.StatusInternalServerError: apperr.ErrDependency,
			http.StatusServiceUnavailable:  apperr.ErrDependency,
			http.StatusForbidden:           apperr.ErrInternal,
		}
		for status, kind := range cases {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				web.RespondWithError(w, nil, r, status, http.StatusText(status), "boom")
			})

			err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/items"}, nil)

			assert.Equal(t, kind, apperr.KindOf(err), "status %d", status)
		}
	})

	t.Run("transport failure is a dependency failure", func(t *testing.T) {
		registry := discovery.NewRegistry(map[string][]string{"item-service": {"http://127.0.0.1:1"}})
		client := New("item-service", registry, 200*time.Millisecond, logs.NewSlogLogger())

		err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/items"}, nil)

		assert.ErrorIs(t, err, apperr.ErrDependency)
	})

	t.Run("unresolvable service is a dependency failure", func(t *testing.T) {
		client := New("item-service", discovery.NewRegistry(nil), time.Second, logs.NewSlogLogger())

		err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/items"}, nil)

		assert.ErrorIs(t, err, apperr.ErrDependency)
	})
}
