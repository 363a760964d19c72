package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paygate/internal/mw"
	"paygate/internal/service"
	"paygate/internal/store"
	"paygate/internal/validate"
)

type Deps struct {
	Merchants *service.MerchantService
	Orders    *service.OrderService
	Payments  *service.PaymentService
	DB        store.Pinger
	Worker    workerState
	JWTSecret string
}

func NewRouter(d Deps) http.Handler {
	v := validate.New()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", mw.HeaderAPIKey, mw.HeaderAPISecret},
		ExposedHeaders: []string{"Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", HealthHandler(d.DB, d.Worker))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/merchants/token", TokenHandler(d.Merchants, d.JWTSecret))
		r.Get("/test/merchant", TestMerchantHandler(d.Merchants))
		r.Get("/orders/{id}/public", GetPublicOrderHandler(d.Orders))
		r.Post("/payments/public", CreatePublicPaymentHandler(d.Payments, v))
		r.Get("/payments/{id}", GetPaymentHandler(d.Payments))

		// Merchant routes
		r.Group(func(r chi.Router) {
			r.Use(mw.MerchantAuth(d.Merchants, d.JWTSecret))

			r.Post("/orders", CreateOrderHandler(d.Orders, v))
			r.Get("/orders/{id}", GetOrderHandler(d.Orders))
			r.Post("/payments", CreatePaymentHandler(d.Payments, v))
			r.Get("/payments/merchant", ListMerchantPaymentsHandler(d.Payments))
		})
	})

	return r
}
