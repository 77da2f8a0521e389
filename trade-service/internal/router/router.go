package router

import (
	"net/http"

	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
	"github.com/peng-yewang/YGMall/shared/web/middlewares"
	"github.com/peng-yewang/YGMall/trade-service/internal/db"
	"github.com/peng-yewang/YGMall/trade-service/internal/handlers"
)

func ConfigRoutes(db db.DB, coordinator handlers.OrderCoordinator, ledger handlers.OrderLedger, checkoutLimiter *middlewares.RateLimiterMiddleware, logger logs.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	web.RegisterProbeRoutes(mux, db.Ping)
	registerOrderRoutes(mux, coordinator, ledger, checkoutLimiter, logger)

	return mux
}

func registerOrderRoutes(mux *http.ServeMux, coordinator handlers.OrderCoordinator, ledger handlers.OrderLedger, checkoutLimiter *middlewares.RateLimiterMiddleware, logger logs.Logger) {
	h := handlers.NewHandler(coordinator, ledger, logger)

	// The limiter runs inside RequireUser so it can key on the caller.
	mux.Handle("POST /api/orders", web.RequireUser(logger, checkoutLimiter.Middleware(http.HandlerFunc(h.CreateOrderHandler))))
	mux.Handle("GET /api/orders/{id}", web.RequireUser(logger, http.HandlerFunc(h.GetOrderHandler)))
	// Payment confirmation is service-to-service; the usual path is the
	// pay.success consumer, this route is its synchronous twin.
	mux.Handle("PUT /api/orders/{id}/paid", web.InternalOnly(logger, http.HandlerFunc(h.MarkOrderPaidHandler)))
}
