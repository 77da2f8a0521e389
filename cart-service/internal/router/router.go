package router

import (
	"net/http"

	"github.com/peng-yewang/YGMall/cart-service/internal/db"
	"github.com/peng-yewang/YGMall/cart-service/internal/handlers"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
)

func ConfigRoutes(db db.DB, service handlers.CartService, logger logs.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	web.RegisterProbeRoutes(mux, db.Ping)
	registerCartRoutes(mux, service, logger)

	return mux
}

func registerCartRoutes(mux *http.ServeMux, service handlers.CartService, logger logs.Logger) {
	h := handlers.NewHandler(service, logger)

	withUser := func(fn http.HandlerFunc) http.Handler {
		return web.RequireUser(logger, fn)
	}

	mux.Handle("POST /api/carts", withUser(h.AddItemHandler))
	mux.Handle("GET /api/carts", withUser(h.ListCartHandler))
	mux.Handle("DELETE /api/carts", withUser(h.RemoveByItemIDsHandler))
	mux.Handle("DELETE /api/carts/{itemId}", withUser(h.RemoveItemHandler))
	mux.Handle("POST /api/carts/restore", withUser(h.RestoreLinesHandler))
}
