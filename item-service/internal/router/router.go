package router

import (
	"net/http"

	"github.com/peng-yewang/YGMall/item-service/internal/db"
	"github.com/peng-yewang/YGMall/item-service/internal/handlers"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
)

func ConfigRoutes(db db.DB, service handlers.ItemService, logger logs.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	web.RegisterProbeRoutes(mux, db.Ping)
	registerItemRoutes(mux, service, logger)

	return mux
}

func registerItemRoutes(mux *http.ServeMux, service handlers.ItemService, logger logs.Logger) {
	h := handlers.NewHandler(service, logger)

	mux.HandleFunc("GET /api/items", h.GetItemsByIDsHandler)
	mux.HandleFunc("GET /api/items/{id}", h.GetItemHandler)
	mux.HandleFunc("PUT /api/items/{id}", h.UpdateItemHandler)
	mux.HandleFunc("PUT /api/items/stock/deduct", h.DeductStockHandler)
	mux.HandleFunc("PUT /api/items/stock/restore", h.RestoreStockHandler)
}
