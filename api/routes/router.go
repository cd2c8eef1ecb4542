package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khiels/storefront-backend/api/controllers"
	"github.com/khiels/storefront-backend/api/middleware"
	checkoutsvc "github.com/khiels/storefront-backend/internal/checkout"
	"github.com/khiels/storefront-backend/internal/orders"
	"github.com/khiels/storefront-backend/internal/webhooks"
	"github.com/khiels/storefront-backend/pkg/config"
	"github.com/khiels/storefront-backend/pkg/db"
	"github.com/khiels/storefront-backend/pkg/logger"
	"github.com/khiels/storefront-backend/pkg/payos"
	"github.com/khiels/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger db.Pinger,
	redisClient *redis.Client,
	checkoutService checkoutsvc.Service,
	ordersRepo orders.Repository,
	webhookService webhooks.PaymentService,
	payosClient *payos.Client,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbPinger, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/payos", controllers.PayOSWebhook(webhookService, payosClient, logg))
	})

	r.Route("/checkout", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Post("/process", controllers.ProcessCheckout(checkoutService, logg))
		r.Get("/thank-you", controllers.ThankYou(ordersRepo, logg))
		r.Get("/orders", controllers.OrderHistory(ordersRepo, logg))
	})

	return r
}
