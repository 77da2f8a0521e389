package router

import (
	"context"
	"net/http"

	"github.com/peng-yewang/YGMall/pay-service/internal/handlers"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
)

// ConfigRoutes reports ready while the broker connection is usable.
func ConfigRoutes(brokerPing func() error, service handlers.PayService, logger logs.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	web.RegisterProbeRoutes(mux, func(ctx context.Context) error {
		return brokerPing()
	})

	h := handlers.NewHandler(service, logger)
	mux.HandleFunc("PUT /api/pay-orders/{orderId}/success", h.PaySuccessHandler)

	return mux
}
