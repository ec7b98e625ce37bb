package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/xact-softwaresolution/e-cart/internal/metrics"
)

var validate = validator.New()

type Handlers struct {
	Orders    *OrderHandler
	Payments  *PaymentHandler
	Inventory *InventoryHandler
}

func NewRouter(h Handlers, m *metrics.ServerMetrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	if m != nil {
		r.Use(m.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireUserID)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Orders.Create)
			r.Get("/stats", h.Orders.Stats)
			r.Get("/{orderId}", h.Orders.Get)
			r.Patch("/{orderId}/status", h.Orders.UpdateStatus)
		})
		r.Get("/users/{userId}/orders", h.Orders.ListByUser)

		r.Route("/payments", func(r chi.Router) {
			r.Post("/initiate", h.Payments.Initiate)
			r.Post("/verify", h.Payments.Verify)
			r.Get("/stats", h.Payments.Stats)
			r.Get("/order/{orderId}", h.Payments.GetByOrder)
			r.Post("/{paymentId}/refund", h.Payments.Refund)
			r.Get("/{paymentId}", h.Payments.Get)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/adjust", h.Inventory.Adjust)
			r.Get("/report", h.Inventory.Report)
			r.Get("/low-stock", h.Inventory.LowStock)
		})
	})

	return r
}
